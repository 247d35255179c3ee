package scenario_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/trexctl/internal/scenario"
	"github.com/Mohsinsiddi/trexctl/test/fixtures"
)

func TestDefaultScenarioParses(t *testing.T) {
	sc, err := scenario.Default()
	require.NoError(t, err)
	assert.Equal(t, "token-operations", sc.Name)
	assert.Len(t, sc.Steps, 37)

	var deploys int
	for _, st := range sc.Steps {
		assert.NotEmpty(t, st.Name)
		if st.DeployIdentity != nil {
			deploys++
			assert.Equal(t, "newTokenOID", st.DeployIdentity.Save)
		}
	}
	assert.Equal(t, 1, deploys)
}

func TestArgsAcceptScalarOrList(t *testing.T) {
	sc, err := scenario.Parse([]byte(`
name: args
steps:
  - call: pause
  - call: unpause
    args: alice
  - call: batchMint
    args: [[alice, bob], [1, 2]]
    expect:
      - {view: balanceOf, of: bob, change: "+2"}
`))
	require.NoError(t, err)

	assert.Nil(t, sc.Steps[0].Args)
	assert.Equal(t, scenario.Args{"alice"}, sc.Steps[1].Args)
	want := scenario.Args{
		[]interface{}{"alice", "bob"},
		[]interface{}{1, 2},
	}
	if diff := cmp.Diff(want, sc.Steps[2].Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, scenario.Args{"bob"}, sc.Steps[2].Expect[0].Of)
}

func TestParseRejectsInvalidSteps(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no steps", "name: empty\n", `scenario "empty" has no steps`},
		{"no call", "steps:\n  - name: idle\n", "idle: needs call or deploy_identity"},
		{
			"both call and deploy",
			"steps:\n  - call: pause\n    deploy_identity: {owner: alice, save: id}\n",
			"step 1: call and deploy_identity are exclusive",
		},
		{
			"deploy without save",
			"steps:\n  - deploy_identity: {owner: alice}\n",
			"step 1: deploy_identity needs owner and save",
		},
		{
			"equals and change",
			"steps:\n  - call: pause\n    expect:\n      - {view: paused, equals: true, change: \"+1\"}\n",
			"step 1: paused: set exactly one of equals and change",
		},
		{
			"neither equals nor change",
			"steps:\n  - call: pause\n    expect:\n      - {view: paused}\n",
			"step 1: paused: set exactly one of equals and change",
		},
		{
			"expectation without view",
			"steps:\n  - call: pause\n    expect:\n      - {equals: true}\n",
			"step 1: expectation without view",
		},
		{
			"watch without view",
			"steps:\n  - call: pause\n    watch:\n      - {of: alice}\n",
			"step 1: watch without view",
		},
		{"bad yaml", "steps: [", "parsing scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenario.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := fixtures.WriteFile(t, dir, "pause.yaml", "name: pause\nsteps:\n  - call: pause\n")
	sc, err := scenario.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pause", sc.Name)

	_, err = scenario.Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading scenario")
}

func TestDescribeAndLabel(t *testing.T) {
	sc, err := scenario.Parse([]byte(`
name: render
steps:
  - call: batchTransfer
    as: alice
    args: [[bob, charlie], [5, 6]]
  - contract: "identity:bob"
    call: addKey
    args: ["keyhash:another", 1, 1]
  - deploy_identity: {owner: tokenIssuer, save: oid}
    as: alice
`))
	require.NoError(t, err)

	assert.Equal(t, "token.batchTransfer([bob, charlie], [5, 6]) as alice", sc.Steps[0].Describe())
	assert.Equal(t, "identity:bob.addKey(keyhash:another, 1, 1) as deployer", sc.Steps[1].Describe())
	assert.Equal(t, "deploy identity(owner=tokenIssuer) -> $oid as alice", sc.Steps[2].Describe())

	v := scenario.View{Contract: "contract:identityRegistry", View: "identity", Of: scenario.Args{"another"}}
	assert.Equal(t, "contract:identityRegistry.identity(another)", v.Label())
	assert.Equal(t, "token.totalSupply()", scenario.View{View: "totalSupply"}.Label())
}
