package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const airShipmentYAML = `
boxes:
  - {width: 300, height: 100, depth: 1000}
items:
  - {amount: 1600, currency: THB}
  - {amount: 99, currency: USD}
memberCode: null
weightsKg: [26]
`

func run(t *testing.T, stdin string, args ...string) (map[string]any, string, int) {
	t.Helper()
	root := NewRootCommand(nil)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))

	code := Execute(root, args, &stderr)
	if code != 0 {
		return nil, stderr.String(), code
	}

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	return out, stderr.String(), code
}

func writeShipment(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCBMCommand(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCBM    float64
		wantMethod string
	}{
		{name: "Sea", args: []string{"cbm", "--width", "100", "--height", "100", "--depth", "100"}, wantCBM: 1, wantMethod: "sea"},
		{name: "ExactlyThreshold", args: []string{"cbm", "--width", "290", "--height", "100", "--depth", "1000"}, wantCBM: 29, wantMethod: "sea"},
		{name: "Air", args: []string{"cbm", "--width", "300", "--height", "100", "--depth", "1000"}, wantCBM: 30, wantMethod: "air"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, code := run(t, "", tt.args...)
			require.Zero(t, code)
			assert.InDelta(t, tt.wantCBM, out["cbm"], 1e-9)
			assert.Equal(t, tt.wantMethod, out["shippingMethod"])
		})
	}
}

func TestCBMCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "ZeroDimension", args: []string{"cbm", "--width", "0", "--height", "10", "--depth", "10"}, wantErr: "width"},
		{name: "MissingFlag", args: []string{"cbm", "--width", "10"}, wantErr: "required flag"},
		{name: "NotANumber", args: []string{"cbm", "--width", "ten", "--height", "1", "--depth", "1"}, wantErr: "invalid argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := run(t, "", tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestShippingMethodCommand(t *testing.T) {
	out, _, code := run(t, "", "shipping-method", "--cbm", "29.000001")
	require.Zero(t, code)
	assert.Equal(t, "air", out["shippingMethod"])

	_, stderr, code := run(t, "", "shipping-method", "--cbm", "-1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "cbm: must be zero or greater")
}

func TestValidateCommand(t *testing.T) {
	path := writeShipment(t, "shipment.yaml", airShipmentYAML)

	out, _, code := run(t, "", "validate", "--file", path)
	require.Zero(t, code)
	assert.Equal(t, true, out["cbmExceedsLimit"])
	assert.Equal(t, true, out["amountExceedsThreshold"])
	assert.Equal(t, true, out["memberCodeMissing"])
	assert.Len(t, out["warnings"], 3)
	assert.InDelta(t, 1600.0, out["totalHighValueAmount"], 1e-9)
}

func TestValidateCommand_JSONFromStdin(t *testing.T) {
	stdin := `{"boxes":[{"width":10,"height":10,"depth":10}],"items":[],"memberCode":"M-1"}`

	out, _, code := run(t, stdin, "validate", "-f", "-", "--compact")
	require.Zero(t, code)
	assert.Equal(t, false, out["memberCodeMissing"])
	assert.Equal(t, "sea", out["shippingMethod"])
	assert.Empty(t, out["warnings"])
}

func TestValidateCommand_NoBoxes(t *testing.T) {
	path := writeShipment(t, "shipment.yaml", "items:\n  - {amount: 2000, currency: THB}\n")

	out, _, code := run(t, "", "validate", "--file", path)
	require.Zero(t, code)
	assert.Equal(t, false, out["cbmExceedsLimit"])
	assert.Equal(t, true, out["amountExceedsThreshold"])
	assert.Equal(t, true, out["memberCodeMissing"])
	assert.Equal(t, 0.0, out["totalCbm"])
	assert.Equal(t, "sea", out["shippingMethod"])
	assert.Len(t, out["warnings"], 2)
}

func TestValidateCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "BadBox", content: "boxes:\n  - {width: 10, height: 10, depth: -2}\n", wantErr: "boxes[0].depth"},
		{name: "Garbage", content: "boxes: [", wantErr: "not valid YAML or JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeShipment(t, "shipment.yaml", tt.content)
			_, stderr, code := run(t, "", "validate", "--file", path)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}

	_, stderr, code := run(t, "", "validate", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to read shipment")
}

func TestAssessCommand(t *testing.T) {
	path := writeShipment(t, "shipment.yaml", airShipmentYAML)

	out, _, code := run(t, "", "assess", "--file", path)
	require.Zero(t, code)
	assert.Equal(t, true, out["hasErrors"])
	assert.Equal(t, "air", out["shippingMethod"])

	advisories, ok := out["advisories"].([]any)
	require.True(t, ok)
	rules := make([]string, len(advisories))
	for i, a := range advisories {
		rules[i] = a.(map[string]any)["rule"].(string)
	}
	assert.Equal(t, []string{"cbm", "highValue", "memberCode", "weight"}, rules)
}

func TestThresholdsCommand(t *testing.T) {
	out, _, code := run(t, "", "thresholds")
	require.Zero(t, code)
	assert.Equal(t, 29.0, out["cbmThresholdM3"])
	assert.Equal(t, 1500.0, out["highValueThreshold"])
	assert.Equal(t, "THB", out["highValueCurrency"])
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, code := run(t, "", "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown command")
}
