package k8s

import (
	"context"
	"fmt"
	"io"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	podScheme = "pod://"

	// defaultContainerAnnotation is the kubectl convention for picking a
	// container when none is named.
	defaultContainerAnnotation = "kubectl.kubernetes.io/default-container"
)

// PodRef names a pod, and optionally one of its containers.
type PodRef struct {
	Namespace string
	Name      string
	Container string
}

func (r PodRef) String() string {
	s := podScheme + r.Namespace + "/" + r.Name
	if r.Container != "" {
		s += "/" + r.Container
	}
	return s
}

// IsPodURL reports whether raw uses the pod:// scheme.
func IsPodURL(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), podScheme)
}

// ParsePodRef parses pod://namespace/name[/container]. The pod name may be
// omitted when listing: pod://namespace.
func ParsePodRef(raw string) (PodRef, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, podScheme) {
		return PodRef{}, fmt.Errorf("unsupported scheme in %q: expected pod://", raw)
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(raw, podScheme), "/"), "/")
	if parts[0] == "" {
		return PodRef{}, fmt.Errorf("empty namespace in %q", raw)
	}
	if len(parts) > 3 {
		return PodRef{}, fmt.Errorf("too many path segments in %q: expected pod://namespace/name[/container]", raw)
	}

	ref := PodRef{Namespace: parts[0]}
	if len(parts) > 1 {
		ref.Name = parts[1]
	}
	if len(parts) > 2 {
		ref.Container = parts[2]
	}
	return ref, nil
}

// PodInfo is a pod summary for listing.
type PodInfo struct {
	Name       string   `json:"name"`
	Phase      string   `json:"phase"`
	Containers []string `json:"containers"`
}

// ListPods lists pods in namespace matching an optional label selector.
func (c *Client) ListPods(ctx context.Context, namespace, selector string) ([]PodInfo, error) {
	if namespace == "" {
		namespace = c.NS
	}
	list, err := c.CS.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("list pods in %s: %w", namespace, err)
	}

	pods := make([]PodInfo, 0, len(list.Items))
	for _, p := range list.Items {
		pods = append(pods, PodInfo{
			Name:       p.Name,
			Phase:      string(p.Status.Phase),
			Containers: containerNames(p.Spec.Containers),
		})
	}
	return pods, nil
}

// PodLogs opens the full log of one container. When ref names no container
// the pod's default container is used.
func (c *Client) PodLogs(ctx context.Context, ref PodRef) (io.ReadCloser, error) {
	if ref.Name == "" {
		return nil, fmt.Errorf("pod name required in %s", ref)
	}
	ns := ref.Namespace
	if ns == "" {
		ns = c.NS
	}

	container := ref.Container
	if container == "" {
		pod, err := c.CS.CoreV1().Pods(ns).Get(ctx, ref.Name, metav1.GetOptions{})
		if err != nil {
			return nil, fmt.Errorf("get pod %s/%s: %w", ns, ref.Name, err)
		}
		container, err = defaultContainer(pod)
		if err != nil {
			return nil, err
		}
	}

	req := c.CS.CoreV1().Pods(ns).GetLogs(ref.Name, &corev1.PodLogOptions{
		Container: container,
	})
	stream, err := req.Stream(ctx)
	if err != nil {
		return nil, fmt.Errorf("open log stream for %s/%s: %w", ref.Name, container, err)
	}
	return stream, nil
}

func defaultContainer(pod *corev1.Pod) (string, error) {
	if name := pod.Annotations[defaultContainerAnnotation]; name != "" {
		return name, nil
	}
	switch len(pod.Spec.Containers) {
	case 0:
		return "", fmt.Errorf("pod %s has no containers", pod.Name)
	case 1:
		return pod.Spec.Containers[0].Name, nil
	default:
		return "", fmt.Errorf("pod %s has %d containers, name one: pod://%s/%s/<container> (one of %s)",
			pod.Name, len(pod.Spec.Containers), pod.Namespace, pod.Name,
			strings.Join(containerNames(pod.Spec.Containers), ", "))
	}
}

func containerNames(cs []corev1.Container) []string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name)
	}
	return names
}
