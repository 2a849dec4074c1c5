package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--readers=3",
		"--writers=1",
		"--ops=5",
		"--read-duration=100us",
		"--write-duration=100us",
		"--log-level=error",
	})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "reads:       15\n")
	require.Contains(t, out.String(), "writes:      5\n")
	require.Contains(t, out.String(), "final value: 5\n")
	require.Contains(t, out.String(), "violations:  0\n")
}

func TestRootCmd_BadLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--log-level=loud", "--ops=1"})
	require.Error(t, cmd.Execute())
}

func TestResolveWorkload_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workload.yaml")
	require.NoError(t, os.WriteFile(path, []byte("readers: 10\nwriters: 3\nops_per_client: 7\n"), 0o600))

	fs := pflag.NewFlagSet("lockbench", pflag.ContinueOnError)
	var o options
	bindFlags(fs, &o)
	require.NoError(t, fs.Parse([]string{"--config", path, "--writers=1", "--read-duration=2ms"}))

	cfg, err := resolveWorkload(fs, &o)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Readers)
	require.Equal(t, 1, cfg.Writers)
	require.Equal(t, 7, cfg.OpsPerClient)
	require.Equal(t, 2*time.Millisecond, cfg.ReadDuration)
}
