package artifacts

import "fmt"

var (
	ErrInvalidArtifact   = fmt.Errorf("invalid contract artifact")
	ErrNoBytecode        = fmt.Errorf("artifact has no deployable bytecode (abstract contract or interface)")
	ErrUnlinkedLibraries = fmt.Errorf("artifact bytecode has unlinked library references")
	ErrNotFound          = fmt.Errorf("contract artifact not found")
	ErrAmbiguous         = fmt.Errorf("multiple artifacts share this contract name, use the fully qualified name")
	ErrDuplicateArtifact = fmt.Errorf("artifact already registered")
	ErrTemplateNil       = fmt.Errorf("template cannot be nil")
)
