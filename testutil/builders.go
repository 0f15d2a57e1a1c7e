package testutil

import (
	"encoding/json"
	"testing/fstest"
)

// ============================================================
// Artifact Builders
// ============================================================

// NewArtifactJSON builds a Hardhat artifact for a contract
func NewArtifactJSON(name, sourceName, abiJSON, bytecode string) []byte {
	artifact := map[string]any{
		"_format":                "hh-sol-artifact-1",
		"contractName":           name,
		"sourceName":             sourceName,
		"abi":                    json.RawMessage(abiJSON),
		"bytecode":               bytecode,
		"deployedBytecode":       "0x",
		"linkReferences":         map[string]any{},
		"deployedLinkReferences": map[string]any{},
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		panic(err)
	}
	return data
}

// NewStubArtifactJSON builds an artifact for a stub contract returning value
func NewStubArtifactJSON(name string, value byte) []byte {
	return NewArtifactJSON(name, ArtifactSource(name), StubABI, StubBytecode(value))
}

// ArtifactSource returns the conventional source path of a contract
func ArtifactSource(name string) string {
	return "contracts/" + name + ".sol"
}

// ArtifactPath returns where Hardhat writes the artifact of a contract under root
func ArtifactPath(root, name string) string {
	return root + "/" + ArtifactSource(name) + "/" + name + ".json"
}

// StubArtifacts returns an artifacts tree under "artifacts" holding stub
// versions of the three fixture contracts, plus the debug and build-info
// files Hardhat writes next to them.
func StubArtifacts() fstest.MapFS {
	fsys := fstest.MapFS{
		"artifacts/build-info/0123abcd.json": {Data: []byte(`{"id":"0123abcd","input":{},"output":{}}`)},
	}
	for name, value := range map[string]byte{
		"DelegationManagementContract": DelegationStubValue,
		"External":                     ExternalStubValue,
		"VulnNFTdelegation":            VulnStubValue,
	} {
		fsys[ArtifactPath("artifacts", name)] = &fstest.MapFile{Data: NewStubArtifactJSON(name, value)}
		fsys["artifacts/"+ArtifactSource(name)+"/"+name+".dbg.json"] = &fstest.MapFile{
			Data: []byte(`{"_format":"hh-sol-dbg-1","buildInfo":"../../build-info/0123abcd.json"}`),
		}
	}
	return fsys
}

// WithoutArtifact removes a contract's artifact from fsys and returns fsys
func WithoutArtifact(fsys fstest.MapFS, name string) fstest.MapFS {
	delete(fsys, ArtifactPath("artifacts", name))
	return fsys
}
