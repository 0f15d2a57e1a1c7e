package fixturearmy

// Template names resolved by the fixture
const (
	DelegationTemplate = "DelegationManagementContract"
	ExternalTemplate   = "External"
	VulnTemplate       = "VulnNFTdelegation"

	// MinSigners is the number of accounts the fixture labels as signers
	MinSigners = 4
)

// Label identifies one of the contract slots of a Result
type Label string

const (
	LabelDelegation Label = "hhDelegation"
	LabelExternal   Label = "hhExternal"
	LabelVuln       Label = "hhVuln"
)

// slots lists the contract slots in deployment order. Result positions follow it.
var slots = [...]Label{LabelDelegation, LabelExternal, LabelVuln}

// Labels returns the contract slots in deployment order
func Labels() []Label {
	return append([]Label(nil), slots[:]...)
}

// known reports whether l names one of the contract slots
func (l Label) known() bool {
	for _, slot := range slots {
		if l == slot {
			return true
		}
	}
	return false
}

// defaultTemplateNames maps each contract slot to the template deployed into it
func defaultTemplateNames() map[Label]string {
	return map[Label]string{
		LabelDelegation: DelegationTemplate,
		LabelExternal:   ExternalTemplate,
		LabelVuln:       VulnTemplate,
	}
}

// Signers holds the first four accounts of the environment in order
type Signers struct {
	Owner Account
	Addr1 Account
	Addr2 Account
	Addr3 Account
}

// All returns the signers in positional order
func (s Signers) All() []Account {
	return []Account{s.Owner, s.Addr1, s.Addr2, s.Addr3}
}

// Contracts holds one freshly deployed instance per template
type Contracts struct {
	HHDelegation DeployedContract
	HHExternal   DeployedContract
	HHVuln       DeployedContract
}

// Get returns the contract deployed into the given slot, or nil for an unknown label
func (c Contracts) Get(label Label) DeployedContract {
	switch label {
	case LabelDelegation:
		return c.HHDelegation
	case LabelExternal:
		return c.HHExternal
	case LabelVuln:
		return c.HHVuln
	default:
		return nil
	}
}

// Result is the ready-to-use test environment produced by Build
type Result struct {
	Signers   Signers
	Contracts Contracts
}
