// Package k8s reads training logs straight from Kubernetes pods. Training
// jobs are addressed as pod://namespace/name[/container]; the kubeconfig
// supplies credentials and, when a location omits it, the namespace.
package k8s

import (
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// userAgent identifies neurofold in apiserver audit logs.
const userAgent = "neurofold"

// Client wraps a Kubernetes clientset and its default namespace.
type Client struct {
	CS kubernetes.Interface
	NS string
}

// NewClient creates a Client from the default kubeconfig chain (KUBECONFIG,
// then ~/.kube/config, then in-cluster). An empty namespace resolves to the
// current context's namespace.
func NewClient(namespace string) (*Client, error) {
	restConfig, ns, err := loadConfig(namespace)
	if err != nil {
		return nil, err
	}
	cs, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}
	return &Client{CS: cs, NS: ns}, nil
}

// loadConfig builds the REST config and resolves the namespace. It does not
// contact the apiserver.
func loadConfig(namespace string) (*rest.Config, string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	overrides := &clientcmd.ConfigOverrides{}
	if namespace != "" {
		overrides.Context.Namespace = namespace
	}
	config := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)

	ns := namespace
	if ns == "" {
		var err error
		if ns, _, err = config.Namespace(); err != nil {
			return nil, "", fmt.Errorf("resolve namespace: %w", err)
		}
	}

	restConfig, err := config.ClientConfig()
	if err != nil {
		return nil, "", fmt.Errorf("build kubeconfig: %w", err)
	}
	restConfig.UserAgent = userAgent
	return restConfig, ns, nil
}

// NewClientFromInterface creates a Client from an existing clientset.
func NewClientFromInterface(cs kubernetes.Interface, ns string) *Client {
	return &Client{CS: cs, NS: ns}
}
