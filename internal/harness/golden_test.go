package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario files under testdata/scenarios have golden snapshots under
// testdata/golden. Regenerate with: go test ./internal/harness -update
func TestScenarios_Golden(t *testing.T) {
	for _, name := range []string{
		"trusted_commit",
		"verified_commit",
		"rejected_proof",
		"duplicate_at_callback",
		"admin_handover",
	} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
