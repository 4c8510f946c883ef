package k8s

import (
	"context"
	"fmt"

	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// AccessCheck describes a single permission to verify.
type AccessCheck struct {
	Resource    string `json:"resource"`
	Subresource string `json:"subresource,omitempty"`
	Verb        string `json:"verb"`
}

func (a AccessCheck) String() string {
	if a.Subresource != "" {
		return a.Verb + " " + a.Resource + "/" + a.Subresource
	}
	return a.Verb + " " + a.Resource
}

// AccessResult pairs a check with its outcome.
type AccessResult struct {
	Check   AccessCheck `json:"check"`
	Allowed bool        `json:"allowed"`
	Reason  string      `json:"reason,omitempty"`
}

// LogAccessChecks are the permissions pod:// sources need.
var LogAccessChecks = []AccessCheck{
	{Resource: "pods", Verb: "list"},
	{Resource: "pods", Verb: "get"},
	{Resource: "pods", Subresource: "log", Verb: "get"},
}

// CheckAccess verifies permissions in namespace via SelfSubjectAccessReview.
// An empty namespace uses the client's default.
func (c *Client) CheckAccess(ctx context.Context, namespace string, checks []AccessCheck) ([]AccessResult, error) {
	if namespace == "" {
		namespace = c.NS
	}
	results := make([]AccessResult, 0, len(checks))
	for _, check := range checks {
		sar := &authv1.SelfSubjectAccessReview{
			Spec: authv1.SelfSubjectAccessReviewSpec{
				ResourceAttributes: &authv1.ResourceAttributes{
					Namespace:   namespace,
					Verb:        check.Verb,
					Resource:    check.Resource,
					Subresource: check.Subresource,
				},
			},
		}
		resp, err := c.CS.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, sar, metav1.CreateOptions{})
		if err != nil {
			return nil, fmt.Errorf("check access %s in %s: %w", check, namespace, err)
		}
		results = append(results, AccessResult{
			Check:   check,
			Allowed: resp.Status.Allowed,
			Reason:  resp.Status.Reason,
		})
	}
	return results, nil
}
