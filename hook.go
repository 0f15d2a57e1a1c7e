package fixturearmy

// BeforeDeployHook is called before a template is deployed into a contract slot.
// Return an error to abort the build.
type BeforeDeployHook func(label Label, tmpl *Template) error

// DeployedHook is called once a contract is deployed and usable.
// Return an error to abort the build; the error is returned to the caller unchanged.
type DeployedHook func(label Label, contract DeployedContract) error
