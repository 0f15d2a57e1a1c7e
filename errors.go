package fixturearmy

import "fmt"

// Fixture errors
var (
	ErrInsufficientAccounts = fmt.Errorf("environment does not expose enough accounts")
	ErrTemplateResolution   = fmt.Errorf("couldn't resolve contract template")
	ErrDeployment           = fmt.Errorf("contract deployment did not complete")
	ErrEnvironmentNil       = fmt.Errorf("environment cannot be nil")
)

// Loader errors
var (
	ErrFixtureSnapshot = fmt.Errorf("couldn't snapshot fixture state")
	ErrFixtureRevert   = fmt.Errorf("couldn't revert to fixture snapshot")
)
