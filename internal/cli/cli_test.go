package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `database:
  driver: sqlite3
  path: %s
  auto_migrate: true
statement:
  output_dir: %s
logger:
  level: error
`

const testLedger = `company:
  id: c1
  name: Acme s.r.o.
  vat: SK2020123456
partners:
  - id: p1
    name: Buyer s.r.o.
    vat: SK2021000001
    is_vat_payer: true
documents:
  - id: inv1
    number: INV/001
    partner: p1
    invoice_date: 2024-03-05
    lines:
      - net: "100"
        gross: "120"
        tax_rates: ["20"]
`

type cliEnv struct {
	dir    string
	config string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(testConfig, filepath.Join(dir, "kvdph.db"), filepath.Join(dir, "artifacts"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger.yaml"), []byte(testLedger), 0644))

	return &cliEnv{dir: dir, config: cfgPath}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "kvdph "+Version+"\n", out.String())
}

func TestStatementWorkflow(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	out, err = env.run(t, "ledger", "import", filepath.Join(env.dir, "ledger.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "1 partners, 1 documents")

	out, err = env.run(t, "--json", "statement", "create", "--company", "c1", "--year", "2024", "--month", "3")
	require.NoError(t, err)
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "draft", created.Status)

	out, err = env.run(t, "statement", "generate", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "INV/001")
	assert.Contains(t, out, "SK2021000001")

	out, err = env.run(t, "statement", "export", created.ID, "--format", "xml", "--out", env.dir)
	require.NoError(t, err)
	assert.Contains(t, out, "generated")
	_, err = os.Stat(filepath.Join(env.dir, "KVDPH_2024_MESIAC_3.XML"))
	assert.True(t, os.IsNotExist(err))

	out, err = env.run(t, "statement", "export", created.ID, "--format", "xlsx", "--out", env.dir)
	require.NoError(t, err)
	assert.Contains(t, out, "status generated")
	_, err = os.Stat(filepath.Join(env.dir, "KV_DPHS_2024_3.xlsx"))
	assert.NoError(t, err)

	out, err = env.run(t, "statement", "confirm", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "confirmed")

	out, err = env.run(t, "statement", "export", created.ID, "--format", "xml", "--out", env.dir)
	require.NoError(t, err)
	assert.Contains(t, out, "status exported")

	_, err = os.Stat(filepath.Join(env.dir, "KVDPH_2024_MESIAC_3.XML"))
	assert.NoError(t, err)

	out, err = env.run(t, "statement", "list", "--company", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "exported")
}

func TestStatementExportRejectsUnknownFormat(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "statement", "export", "x", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestStatementCreateRejectsBadMonth(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "statement", "create", "--company", "c1", "--year", "2024", "--month", "13")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "month must be between 1 and 12")
	assert.NoFileExists(t, filepath.Join(env.dir, "kvdph.db"))
}
