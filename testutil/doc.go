// Package testutil provides testing utilities for fixturearmy.
//
// This package contains test keys, common values and stub contract artifacts
// shared by the tests of the fixturearmy packages.
//
// # Important Note on Import Cycles
//
// The fixturearmy, artifacts and chain packages import this package from their
// internal tests, so it must not import any of them. Fake environments are
// kept in the fixturearmy package's test files (mocks_test.go).
//
// # Stub Contracts
//
// The three fixture templates are replaced by hand-assembled contracts whose
// only behavior is returning a constant:
//   - DelegationManagementContract returns DelegationStubValue
//   - External returns ExternalStubValue
//   - VulnNFTdelegation returns VulnStubValue
//
// StubArtifacts lays them out the way Hardhat does under artifacts/.
// RevertingBytecode is init code that always reverts, for deployment failures.
//
// # Example Usage
//
//	func TestMyFunction(t *testing.T) {
//	    registry, err := artifacts.Load(testutil.StubArtifacts(), "artifacts")
//	    require.NoError(t, err)
//
//	    env, err := chain.NewSimulated(chain.DefaultConfig(), chain.WithRegistry(registry))
//	    require.NoError(t, err)
//	    defer env.Close()
//	    // ...
//	}
package testutil
