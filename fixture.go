// Package fixturearmy builds the contract test fixture: four labeled signers and
// fresh instances of the delegation management, external and vulnerable NFT
// delegation contracts, deployed into an injected Environment.
package fixturearmy

import (
	"context"
	"errors"
	"fmt"

	"github.com/KyberNetwork/logger"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// Builder deploys the fixture into an environment.
// A Builder holds no state between builds, every build deploys new instances.
type Builder struct {
	env Environment

	templateNames map[Label]string

	// Hooks
	beforeDeployHook BeforeDeployHook
	deployedHook     DeployedHook

	concurrentDeploys bool
}

// Option is a function that configures a Builder
type Option func(*Builder)

// WithTemplateName overrides the template deployed into a contract slot.
// Fully qualified names ("contracts/External.sol:External") are passed through
// to the environment as is. A label that is not one of Labels() fails the
// build with ErrTemplateResolution.
func WithTemplateName(label Label, name string) Option {
	return func(b *Builder) {
		b.templateNames[label] = name
	}
}

// WithBeforeDeployHook sets the hook to be called before each deployment
func WithBeforeDeployHook(hook BeforeDeployHook) Option {
	return func(b *Builder) {
		b.beforeDeployHook = hook
	}
}

// WithDeployedHook sets the hook to be called after each deployment.
// With concurrent deploys the hook may be called from several goroutines at once.
func WithDeployedHook(hook DeployedHook) Option {
	return func(b *Builder) {
		b.deployedHook = hook
	}
}

// WithConcurrentDeploys deploys the three templates concurrently. The contracts
// don't reference each other so the result is the same as a sequential build.
func WithConcurrentDeploys(concurrent bool) Option {
	return func(b *Builder) {
		b.concurrentDeploys = concurrent
	}
}

// NewBuilder creates a fixture builder for env
func NewBuilder(env Environment, opts ...Option) *Builder {
	b := &Builder{
		env:           env,
		templateNames: defaultTemplateNames(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build deploys the fixture into env using a background context.
func Build(env Environment, opts ...Option) (*Result, error) {
	return NewBuilder(env, opts...).Build()
}

// BuildContext deploys the fixture into env. Cancelling ctx aborts pending deployments.
func BuildContext(ctx context.Context, env Environment, opts ...Option) (*Result, error) {
	return NewBuilder(env, opts...).BuildContext(ctx)
}

// Build deploys the fixture using a background context.
// Deployments have no timeout, a hanging deployment blocks indefinitely.
func (b *Builder) Build() (*Result, error) {
	return b.BuildContext(context.Background())
}

// BuildContext selects the first four accounts as signers, resolves the three
// templates and deploys one instance of each from the owner account.
//
// Any failure aborts the whole build and no partial result is returned.
// Contracts deployed before a failing step are left live on the chain.
func (b *Builder) BuildContext(ctx context.Context) (*Result, error) {
	if b.env == nil {
		return nil, ErrEnvironmentNil
	}

	accounts, err := b.env.Accounts(ctx)
	if err != nil {
		return nil, errors.Join(ErrInsufficientAccounts, fmt.Errorf("couldn't list accounts: %w", err))
	}
	if len(accounts) < MinSigners {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientAccounts, len(accounts), MinSigners)
	}

	signers := Signers{
		Owner: accounts[0],
		Addr1: accounts[1],
		Addr2: accounts[2],
		Addr3: accounts[3],
	}

	// resolve everything up front so a missing template fails before any deployment
	templates, err := b.resolveTemplates()
	if err != nil {
		return nil, err
	}

	deployed, err := b.deployAll(ctx, signers.Owner, templates)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Signers: signers,
		Contracts: Contracts{
			HHDelegation: deployed[0],
			HHExternal:   deployed[1],
			HHVuln:       deployed[2],
		},
	}

	logger.WithFields(logger.Fields{
		"owner":         signers.Owner.Address.Hex(),
		"hh_delegation": result.Contracts.HHDelegation.Address().Hex(),
		"hh_external":   result.Contracts.HHExternal.Address().Hex(),
		"hh_vuln":       result.Contracts.HHVuln.Address().Hex(),
		"concurrent":    b.concurrentDeploys,
	}).Info("fixture deployed")

	return result, nil
}

// resolveTemplates resolves the template of every slot, in slot order
func (b *Builder) resolveTemplates() ([]*Template, error) {
	for label, name := range b.templateNames {
		if !label.known() {
			return nil, fmt.Errorf("%w: template %q is set for unknown slot %q", ErrTemplateResolution, name, label)
		}
	}

	templates := make([]*Template, len(slots))
	for i, label := range slots {
		name := b.templateNames[label]
		tmpl, err := b.env.ResolveTemplate(name)
		if err != nil {
			return nil, errors.Join(ErrTemplateResolution, fmt.Errorf("template %q for %s: %w", name, label, err))
		}
		if tmpl == nil {
			return nil, fmt.Errorf("%w: template %q for %s: environment returned no template", ErrTemplateResolution, name, label)
		}
		templates[i] = tmpl
	}
	return templates, nil
}

// deployAll deploys templates[i] into slots[i] and checks no two slots alias the same instance
func (b *Builder) deployAll(ctx context.Context, from Account, templates []*Template) ([]DeployedContract, error) {
	deployed := make([]DeployedContract, len(slots))

	if b.concurrentDeploys {
		g, gctx := errgroup.WithContext(ctx)
		for i, label := range slots {
			g.Go(func() error {
				c, err := b.deploy(gctx, label, from, templates[i])
				if err != nil {
					return err
				}
				deployed[i] = c
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, label := range slots {
			c, err := b.deploy(ctx, label, from, templates[i])
			if err != nil {
				return nil, err
			}
			deployed[i] = c
		}
	}

	seen := make(map[common.Address]Label, len(deployed))
	for i, c := range deployed {
		if other, ok := seen[c.Address()]; ok {
			return nil, fmt.Errorf("%w: %s and %s share address %s", ErrDeployment, other, slots[i], c.Address().Hex())
		}
		seen[c.Address()] = slots[i]
	}

	return deployed, nil
}

// deploy runs the hooks around a single deployment
func (b *Builder) deploy(ctx context.Context, label Label, from Account, tmpl *Template) (DeployedContract, error) {
	if b.beforeDeployHook != nil {
		if err := b.beforeDeployHook(label, tmpl); err != nil {
			return nil, err
		}
	}

	contract, err := b.env.Deploy(ctx, from, tmpl)
	if err != nil {
		logger.WithFields(logger.Fields{
			"label":    label,
			"template": tmpl.Name,
			"from":     from.Address.Hex(),
			"error":    err,
		}).Debug("fixture: deployment failed")
		return nil, errors.Join(ErrDeployment, fmt.Errorf("deploying %s as %s: %w", tmpl.Name, label, err))
	}
	if contract == nil {
		return nil, fmt.Errorf("%w: deploying %s as %s: environment returned no contract", ErrDeployment, tmpl.Name, label)
	}

	logger.WithFields(logger.Fields{
		"label":    label,
		"template": tmpl.Name,
		"address":  contract.Address().Hex(),
	}).Debug("fixture: contract deployed")

	if b.deployedHook != nil {
		if err := b.deployedHook(label, contract); err != nil {
			return nil, err
		}
	}

	return contract, nil
}
