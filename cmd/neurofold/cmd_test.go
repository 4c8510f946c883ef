package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/ppiankov/neurofold/internal/cli"
	"github.com/ppiankov/neurofold/internal/config"
	"github.com/ppiankov/neurofold/internal/engine"
)

// isolate points config discovery at empty directories and restores globals.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	oldCfg, oldPath, oldTimeout, oldJSON := cfg, configPath, timeoutStr, jsonErrors
	t.Cleanup(func() {
		cfg, configPath, timeoutStr, jsonErrors = oldCfg, oldPath, oldTimeout, oldJSON
	})
	cfg, configPath, timeoutStr, jsonErrors = nil, "", "", false
}

// resolved before any test changes directory
var samplePath, _ = filepath.Abs("testdata/run.log")

func sampleLog(t *testing.T) string {
	t.Helper()
	if samplePath == "" {
		t.Fatal("cannot resolve testdata/run.log")
	}
	return samplePath
}

func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	return root.Execute()
}

func TestSubcommandRegistration(t *testing.T) {
	root := newRootCmd()

	expected := []string{"parse", "lines", "report", "export", "view", "serve", "ls"}
	commands := make(map[string]bool)
	for _, c := range root.Commands() {
		commands[c.Name()] = true
	}
	for _, name := range expected {
		if !commands[name] {
			t.Errorf("missing subcommand: %s", name)
		}
	}
}

func TestSubcommandHelp(t *testing.T) {
	isolate(t)

	cmds := []func() *cobra.Command{
		newParseCmd,
		newLinesCmd,
		newReportCmd,
		newExportCmd,
		newViewCmd,
		newServeCmd,
		newLsCmd,
	}

	for _, newCmd := range cmds {
		cmd := newCmd()
		t.Run(cmd.Name(), func(t *testing.T) {
			if cmd.Use == "" || cmd.Short == "" {
				t.Error("Use or Short is empty")
			}

			root := &cobra.Command{Use: "neurofold"}
			root.AddCommand(cmd)

			var buf bytes.Buffer
			root.SetOut(&buf)
			root.SetErr(&buf)
			root.SetArgs([]string{cmd.Name(), "--help"})
			if err := root.Execute(); err != nil {
				t.Errorf("%s --help: %v", cmd.Name(), err)
			}
		})
	}
}

func TestMissingArgIsUsageError(t *testing.T) {
	isolate(t)

	err := runRoot(t, "parse")
	if cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("exit code = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitUsage, err)
	}
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	isolate(t)

	err := runRoot(t, "parse", "--bogus", "x.log")
	if cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("exit code = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitUsage, err)
	}
}

func TestMissingSourceIsNotFound(t *testing.T) {
	isolate(t)

	err := runRoot(t, "report", filepath.Join(t.TempDir(), "missing.log"))
	if cli.ExitCode(err) != cli.ExitNotFound {
		t.Errorf("exit code = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitNotFound, err)
	}
}

func TestBadConfigPath(t *testing.T) {
	isolate(t)

	err := runRoot(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "report", sampleLog(t))
	if cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("exit code = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitUsage, err)
	}
}

func TestExportCommand(t *testing.T) {
	isolate(t)
	log := sampleLog(t)
	out := filepath.Join(t.TempDir(), "epochs.csv")

	if err := runRoot(t, "export", log, "--dataset", "epochs", "--format", "csv", "--out", out); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// header + 15 epoch records
	if len(records) != 16 {
		t.Errorf("CSV records = %d, want 16", len(records))
	}
	for _, r := range records[1:] {
		if r[1] != "epoch_end" {
			t.Fatalf("kind = %q, want epoch_end", r[1])
		}
	}
}

func TestExportRequiresFormat(t *testing.T) {
	isolate(t)

	err := runRoot(t, "export", sampleLog(t), "--out", filepath.Join(t.TempDir(), "x.csv"))
	if cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("exit code = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitUsage, err)
	}

	err = runRoot(t, "export", sampleLog(t), "--format", "xml", "--out", filepath.Join(t.TempDir(), "x.xml"))
	if cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("bad format exit code = %d, want %d", cli.ExitCode(err), cli.ExitUsage)
	}

	err = runRoot(t, "export", sampleLog(t), "--format", "csv", "--out", filepath.Join(t.TempDir(), "x.csv"), "--to", "ftp://nope")
	if cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("bad --to exit code = %d, want %d", cli.ExitCode(err), cli.ExitUsage)
	}
}

func TestExportFormatFromConfig(t *testing.T) {
	isolate(t)
	if err := os.WriteFile(".neurofold.yaml", []byte("export:\n  format: jsonl\n  dataset: steps\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "steps.jsonl")

	if err := runRoot(t, "export", sampleLog(t), "--out", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 45 {
		t.Errorf("JSONL lines = %d, want 45 step records", n)
	}
}

func TestReportHTML(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "report.html")

	if err := runRoot(t, "report", sampleLog(t), "--json", "--html", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<html") {
		t.Error("HTML report missing <html")
	}
}

func TestCustomPatternsFlag(t *testing.T) {
	isolate(t)
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	content := "- name: wandb\n  group: noise\n  pattern: 'wandb:'\n"
	if err := os.WriteFile(rules, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	eng, err := newEngine(rules)
	if err != nil {
		t.Fatal(err)
	}
	relevant, rule := eng.Classifier().Classify("wandb: syncing Fold 1", "wandb: syncing Fold 1")
	if relevant || rule != "wandb" {
		t.Errorf("Classify = %v/%q, want noise/wandb", relevant, rule)
	}

	_, err = newEngine(filepath.Join(t.TempDir(), "missing.yaml"))
	if cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("missing patterns exit code = %d, want %d", cli.ExitCode(err), cli.ExitUsage)
	}
}

func TestWriteResultFormats(t *testing.T) {
	eng, err := engine.New()
	if err != nil {
		t.Fatal(err)
	}
	res := eng.Parse("12.5s\t1\tFold 1\n20.0s\t2\tFold 1 | Epoch 1 | Step 100/381 | Loss: 0.3754")

	var buf bytes.Buffer
	if err := writeResult(&buf, res, "json"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"train_loss": 0.3754`) {
		t.Errorf("json output missing train_loss: %s", buf.String())
	}

	buf.Reset()
	if err := writeResult(&buf, res, "yaml"); err != nil {
		t.Fatal(err)
	}
	var decoded engine.Result
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if len(decoded.Metrics) != 1 || decoded.Metrics[0].Step != 100 {
		t.Errorf("decoded metrics = %+v", decoded.Metrics)
	}

	if err := writeResult(&buf, res, "xml"); cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("xml: exit code = %d, want usage", cli.ExitCode(err))
	}
}

func TestOpContextTimeouts(t *testing.T) {
	isolate(t)

	if got := resolveTimeout(); got != defaultTimeout {
		t.Errorf("default = %v, want %v", got, defaultTimeout)
	}

	cfg = &config.Config{Defaults: config.DefaultsConfig{Timeout: "10s"}}
	if got := resolveTimeout().String(); got != "10s" {
		t.Errorf("config timeout = %s, want 10s", got)
	}

	timeoutStr = "5s"
	if got := resolveTimeout().String(); got != "5s" {
		t.Errorf("flag timeout = %s, want 5s (flag beats config)", got)
	}

	timeoutStr = "garbage"
	if got := resolveTimeout(); got != defaultTimeout {
		t.Errorf("bad flag = %v, want default", got)
	}

	ctx, cancel := opContext(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected context to have deadline")
	}
}

func TestApplyConfigDefaults(t *testing.T) {
	isolate(t)
	cfg = &config.Config{
		Parse:  config.ParseConfig{Patterns: "/rules.yaml", Format: "yaml"},
		Export: config.ExportConfig{Format: "parquet", To: "gs://runs"},
		Serve:  config.ServeConfig{Addr: ":8080"},
	}

	parse := newParseCmd()
	applyConfigDefaults(parse)
	if v, _ := parse.Flags().GetString("format"); v != "yaml" {
		t.Errorf("parse format = %q, want yaml", v)
	}
	if v, _ := parse.Flags().GetString("patterns"); v != "/rules.yaml" {
		t.Errorf("parse patterns = %q", v)
	}

	exp := newExportCmd()
	if err := exp.Flags().Set("format", "csv"); err != nil {
		t.Fatal(err)
	}
	applyConfigDefaults(exp)
	if v, _ := exp.Flags().GetString("format"); v != "csv" {
		t.Errorf("export format = %q, want csv (flag wins)", v)
	}
	if v, _ := exp.Flags().GetString("to"); v != "gs://runs" {
		t.Errorf("export to = %q", v)
	}

	serve := newServeCmd()
	applyConfigDefaults(serve)
	if v, _ := serve.Flags().GetString("listen"); v != ":8080" {
		t.Errorf("serve listen = %q", v)
	}
}

func TestLsRejectsLocalPath(t *testing.T) {
	isolate(t)

	err := runRoot(t, "ls", "/tmp/runs")
	var ce *cli.CLIError
	if !errors.As(err, &ce) || ce.Code != cli.ExitUsage {
		t.Errorf("err = %v, want usage error", err)
	}
}

func TestLsCheckAccessRejectsBadPodURL(t *testing.T) {
	isolate(t)

	err := runRoot(t, "ls", "--check-access", "pod://")
	var ce *cli.CLIError
	if !errors.As(err, &ce) || ce.Code != cli.ExitUsage {
		t.Errorf("err = %v, want usage error", err)
	}
}

func TestParseSourceStreamsCompressedLog(t *testing.T) {
	isolate(t)

	raw, err := os.ReadFile(sampleLog(t))
	if err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "run.log.zst")
	if err := os.WriteFile(path, enc.EncodeAll(raw, nil), 0o644); err != nil {
		t.Fatal(err)
	}
	_ = enc.Close()

	res, err := parseSource(context.Background(), path, "")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(res.MetricsByKind("step")); n != 45 {
		t.Errorf("step records = %d, want 45", n)
	}
	if res.Summary.RunDurationSeconds != 2814.7 {
		t.Errorf("duration = %v, want 2814.7", res.Summary.RunDurationSeconds)
	}
}
