package sim

import (
	"fmt"
)

// Account is one user account held by the domain controller.
type Account struct {
	entity
	router *RequestRouter

	username string
	password string
	enabled  bool
}

func newAccount(cfg AccountConfig) *Account {
	a := &Account{
		entity:   newEntity("account", cfg.Username),
		router:   NewRequestRouter(),
		username: cfg.Username,
		password: cfg.Password,
		enabled:  !cfg.Disabled,
	}
	a.router.mustOp("enable", a.opEnable)
	a.router.mustOp("disable", a.opDisable)
	a.router.mustOp("reset_password", a.opResetPassword)
	return a
}

func (a *Account) ApplyRequest(path []string, ctx *RequestContext) Response {
	return a.router.Dispatch(path, ctx)
}

// Enabled reports whether the account may authenticate.
func (a *Account) Enabled() bool { return a.enabled }

func (a *Account) opEnable(ctx *RequestContext, args []string) Response {
	a.enabled = true
	return Success(nil)
}

func (a *Account) opDisable(ctx *RequestContext, args []string) Response {
	a.enabled = false
	return Success(nil)
}

func (a *Account) opResetPassword(ctx *RequestContext, args []string) Response {
	if len(args) < 1 {
		return Failure("reset_password requires a new password")
	}
	a.password = args[0]
	return Success(nil)
}

// DomainController is the auxiliary account registry routed under the
// simulation root's "domain" subtree.
type DomainController struct {
	entity
	router   *RequestRouter
	accounts map[string]*Account
}

func newDomainController(cfgs []AccountConfig) (*DomainController, error) {
	d := &DomainController{
		entity:   newEntity("domain", "domain"),
		router:   NewRequestRouter(),
		accounts: make(map[string]*Account),
	}
	for _, ac := range cfgs {
		if err := d.AddAccount(ac); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// AddAccount registers a new account; duplicate usernames are rejected.
func (d *DomainController) AddAccount(cfg AccountConfig) error {
	if _, exists := d.accounts[cfg.Username]; exists {
		return fmt.Errorf("domain: account %q already exists", cfg.Username)
	}
	d.accounts[cfg.Username] = newAccount(cfg)
	return nil
}

// RemoveAccount drops an account by username.
func (d *DomainController) RemoveAccount(username string) error {
	if _, exists := d.accounts[username]; !exists {
		return fmt.Errorf("domain: no account %q", username)
	}
	delete(d.accounts, username)
	return nil
}

// Account looks up an account by username.
func (d *DomainController) Account(username string) (*Account, bool) {
	a, ok := d.accounts[username]
	return a, ok
}

func (d *DomainController) ApplyRequest(path []string, ctx *RequestContext) Response {
	if len(path) >= 2 && path[0] == "account" {
		a, ok := d.accounts[path[1]]
		if !ok {
			return Failure(fmt.Sprintf("domain has no account %q", path[1]))
		}
		return a.ApplyRequest(path[2:], ctx)
	}
	return d.router.Dispatch(path, ctx)
}

func (d *DomainController) DescribeState() map[string]any {
	accounts := map[string]any{}
	for name, a := range d.accounts {
		accounts[name] = map[string]any{"enabled": a.enabled}
	}
	return map[string]any{"accounts": accounts}
}
