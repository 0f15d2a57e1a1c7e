package artifacts

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/fixturearmy"
	"github.com/tranvictor/fixturearmy/testutil"
)

func TestLoad_StubArtifacts(t *testing.T) {
	registry, err := Load(testutil.StubArtifacts(), "artifacts")
	require.NoError(t, err)

	want := []string{
		"contracts/DelegationManagementContract.sol:DelegationManagementContract",
		"contracts/External.sol:External",
		"contracts/VulnNFTdelegation.sol:VulnNFTdelegation",
	}
	if diff := cmp.Diff(want, registry.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{fixturearmy.DelegationTemplate, fixturearmy.ExternalTemplate, fixturearmy.VulnTemplate} {
		tmpl, err := registry.Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, tmpl.Name)
	}
}

func TestLoad_SkipsTemplatesWithoutBytecode(t *testing.T) {
	fsys := testutil.StubArtifacts()
	fsys[testutil.ArtifactPath("artifacts", "IDelegation")] = &fstest.MapFile{
		Data: testutil.NewArtifactJSON("IDelegation", testutil.ArtifactSource("IDelegation"), "[]", "0x"),
	}

	registry, err := Load(fsys, "artifacts")
	require.NoError(t, err)
	assert.Len(t, registry.Names(), 3)

	_, err = registry.Resolve("IDelegation")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_InvalidArtifact(t *testing.T) {
	fsys := testutil.StubArtifacts()
	fsys["artifacts/contracts/Broken.sol/Broken.json"] = &fstest.MapFile{Data: []byte(`{"contractName":`)}

	registry, err := Load(fsys, "artifacts")
	assert.ErrorIs(t, err, ErrInvalidArtifact)
	assert.ErrorContains(t, err, "Broken.json")
	assert.Nil(t, registry)
}

func TestLoad_MissingRoot(t *testing.T) {
	_, err := Load(testutil.StubArtifacts(), "out")
	assert.Error(t, err)
}

func TestRegistry_Resolve(t *testing.T) {
	registry, err := Load(testutil.StubArtifacts(), "artifacts")
	require.NoError(t, err)

	// a second External from another source makes the short name ambiguous
	mockSource := "contracts/mocks/External.sol"
	mock, err := Parse(testutil.NewArtifactJSON("External", mockSource, testutil.StubABI, testutil.StubBytecode(9)))
	require.NoError(t, err)
	require.NoError(t, registry.Add(mock))

	t.Run("fully qualified name", func(t *testing.T) {
		tmpl, err := registry.Resolve(mockSource + ":External")
		require.NoError(t, err)
		assert.Same(t, mock, tmpl)
	})

	t.Run("ambiguous short name", func(t *testing.T) {
		_, err := registry.Resolve("External")
		assert.ErrorIs(t, err, ErrAmbiguous)
		assert.ErrorContains(t, err, "contracts/External.sol:External, contracts/mocks/External.sol:External")
	})

	t.Run("unique short name", func(t *testing.T) {
		tmpl, err := registry.Resolve("VulnNFTdelegation")
		require.NoError(t, err)
		assert.Equal(t, "contracts/VulnNFTdelegation.sol", tmpl.SourceName)
	})

	t.Run("unknown names", func(t *testing.T) {
		_, err := registry.Resolve("Missing")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = registry.Resolve("contracts/Missing.sol:Missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate fully qualified name", func(t *testing.T) {
		err := registry.Add(mock)
		assert.ErrorIs(t, err, ErrDuplicateArtifact)
	})
}

func TestRegistry_MissingArtifact(t *testing.T) {
	fsys := testutil.WithoutArtifact(testutil.StubArtifacts(), fixturearmy.ExternalTemplate)

	registry, err := Load(fsys, "artifacts")
	require.NoError(t, err)

	_, err = registry.Resolve(fixturearmy.ExternalTemplate)
	assert.ErrorIs(t, err, ErrNotFound)
}

// usesLibArtifact is an artifact whose bytecode still needs a library address
var usesLibArtifact = []byte(`{
	"_format": "hh-sol-artifact-1",
	"contractName": "UsesLib",
	"sourceName": "contracts/UsesLib.sol",
	"abi": [],
	"bytecode": "0x73__$abc$__",
	"linkReferences": {"contracts/Lib.sol": {"Lib": [{"length": 20, "start": 1}]}}
}`)

func TestLoad_SkipsUnlinkedArtifacts(t *testing.T) {
	fsys := testutil.StubArtifacts()
	fsys[testutil.ArtifactPath("artifacts", "UsesLib")] = &fstest.MapFile{Data: usesLibArtifact}

	registry, err := Load(fsys, "artifacts")
	require.NoError(t, err)
	assert.Len(t, registry.Names(), 3)

	for _, name := range []string{fixturearmy.DelegationTemplate, fixturearmy.ExternalTemplate, fixturearmy.VulnTemplate} {
		_, err := registry.Resolve(name)
		assert.NoError(t, err, name)
	}

	_, err = registry.Resolve("UsesLib")
	assert.ErrorIs(t, err, ErrUnlinkedLibraries)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = registry.Resolve("contracts/UsesLib.sol:UsesLib")
	assert.ErrorIs(t, err, ErrUnlinkedLibraries)
}

func TestRegistry_AddNil(t *testing.T) {
	registry := NewRegistry()

	err := registry.Add(nil)
	assert.ErrorIs(t, err, ErrTemplateNil)
	assert.Empty(t, registry.Names())
}
