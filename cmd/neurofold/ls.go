package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/neurofold/internal/cli"
	"github.com/ppiankov/neurofold/internal/cloud"
	"github.com/ppiankov/neurofold/internal/k8s"
)

func newLsCmd() *cobra.Command {
	var (
		all        bool
		selector   string
		jsonOutput bool
		checkAcc   bool
	)

	cmd := &cobra.Command{
		Use:   "ls <s3://bucket/prefix | gs://bucket/prefix | pod://namespace>",
		Short: "List training logs in object storage or pods in a namespace",
		Args:  exactArgs(1, "one location"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opContext(cmd.Context())
			defer cancel()

			switch {
			case cloud.IsURL(args[0]):
				return runLsObjects(ctx, args[0], all, jsonOutput)
			case k8s.IsPodURL(args[0]):
				if checkAcc {
					return runCheckAccess(ctx, args[0], jsonOutput)
				}
				return runLsPods(ctx, args[0], selector, jsonOutput)
			default:
				return cli.NewUsageError(fmt.Sprintf("unsupported location %q: expected s3://, gs:// or pod://", args[0]))
			}
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every object, not only log files")
	cmd.Flags().StringVarP(&selector, "selector", "l", "", "label selector for pod listing")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&checkAcc, "check-access", false, "verify pod log permissions instead of listing pods")

	return cmd
}

func runLsObjects(ctx context.Context, url string, all, jsonOutput bool) error {
	loc, err := cloud.ParseURL(url)
	if err != nil {
		return cli.NewUsageError(err.Error())
	}
	backend, err := cloud.NewBackend(ctx, loc.Scheme, loc.Bucket)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", loc.Scheme, err)
	}
	objects, err := backend.List(ctx, loc.Key)
	if err != nil {
		return err
	}
	if !all {
		objects = filterLogObjects(objects)
	}

	if jsonOutput {
		if objects == nil {
			objects = []cloud.ObjectInfo{}
		}
		return json.NewEncoder(os.Stdout).Encode(objects)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED")
	for _, o := range objects {
		mod := "-"
		if !o.Modified.IsZero() {
			mod = o.Modified.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", cloud.Location{Scheme: loc.Scheme, Bucket: loc.Bucket, Key: o.Key}, formatBytes(o.Size), mod)
	}
	return w.Flush()
}

func filterLogObjects(objects []cloud.ObjectInfo) []cloud.ObjectInfo {
	var out []cloud.ObjectInfo
	for _, o := range objects {
		if cloud.IsLogKey(o.Key) {
			out = append(out, o)
		}
	}
	return out
}

func runLsPods(ctx context.Context, url, selector string, jsonOutput bool) error {
	ref, err := k8s.ParsePodRef(url)
	if err != nil {
		return cli.NewUsageError(err.Error())
	}
	c, err := k8s.NewClient(ref.Namespace)
	if err != nil {
		return err
	}
	pods, err := c.ListPods(ctx, ref.Namespace, selector)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(pods)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tPHASE\tCONTAINERS")
	for _, p := range pods {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", k8s.PodRef{Namespace: ref.Namespace, Name: p.Name}, p.Phase, strings.Join(p.Containers, ","))
	}
	return w.Flush()
}

func runCheckAccess(ctx context.Context, url string, jsonOutput bool) error {
	ref, err := k8s.ParsePodRef(url)
	if err != nil {
		return cli.NewUsageError(err.Error())
	}
	c, err := k8s.NewClient(ref.Namespace)
	if err != nil {
		return err
	}
	results, err := c.CheckAccess(ctx, ref.Namespace, k8s.LogAccessChecks)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := json.NewEncoder(os.Stdout).Encode(results); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "PERMISSION\tALLOWED")
		for _, r := range results {
			_, _ = fmt.Fprintf(w, "%s\t%t\n", r.Check, r.Allowed)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	for _, r := range results {
		if !r.Allowed {
			return cli.NewPermissionError(fmt.Sprintf("missing permission %s in %s", r.Check, ref.Namespace))
		}
	}
	return nil
}
