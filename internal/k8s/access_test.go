package k8s

import (
	"context"
	"errors"
	"strings"
	"testing"

	authv1 "k8s.io/api/authorization/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func TestCheckAccess(t *testing.T) {
	cs := fake.NewSimpleClientset() //nolint:staticcheck // NewClientset requires generated apply configs
	var seen []authv1.ResourceAttributes
	cs.PrependReactor("create", "selfsubjectaccessreviews", func(action k8stesting.Action) (bool, runtime.Object, error) {
		sar := action.(k8stesting.CreateAction).GetObject().(*authv1.SelfSubjectAccessReview)
		attrs := *sar.Spec.ResourceAttributes
		seen = append(seen, attrs)
		sar.Status.Allowed = attrs.Subresource != "log"
		if !sar.Status.Allowed {
			sar.Status.Reason = "no log access"
		}
		return true, sar, nil
	})
	c := NewClientFromInterface(cs, "default")

	results, err := c.CheckAccess(context.Background(), "training", LogAccessChecks)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for _, a := range seen {
		if a.Namespace != "training" {
			t.Errorf("namespace = %q, want training", a.Namespace)
		}
	}
	if !results[0].Allowed || !results[1].Allowed {
		t.Errorf("pod checks = %+v, want allowed", results[:2])
	}
	if results[2].Allowed || results[2].Reason != "no log access" {
		t.Errorf("log check = %+v, want denied", results[2])
	}
	if got := results[2].Check.String(); got != "get pods/log" {
		t.Errorf("String() = %q", got)
	}
}

func TestCheckAccessDefaultNamespace(t *testing.T) {
	cs := fake.NewSimpleClientset() //nolint:staticcheck
	var ns string
	cs.PrependReactor("create", "selfsubjectaccessreviews", func(action k8stesting.Action) (bool, runtime.Object, error) {
		sar := action.(k8stesting.CreateAction).GetObject().(*authv1.SelfSubjectAccessReview)
		ns = sar.Spec.ResourceAttributes.Namespace
		sar.Status.Allowed = true
		return true, sar, nil
	})
	c := NewClientFromInterface(cs, "ml")

	if _, err := c.CheckAccess(context.Background(), "", LogAccessChecks[:1]); err != nil {
		t.Fatal(err)
	}
	if ns != "ml" {
		t.Errorf("namespace = %q, want ml", ns)
	}
}

func TestCheckAccessError(t *testing.T) {
	cs := fake.NewSimpleClientset() //nolint:staticcheck
	cs.PrependReactor("create", "selfsubjectaccessreviews", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("apiserver down")
	})
	c := NewClientFromInterface(cs, "default")

	_, err := c.CheckAccess(context.Background(), "", LogAccessChecks)
	if err == nil || !strings.Contains(err.Error(), "check access list pods") {
		t.Fatalf("err = %v", err)
	}
}
