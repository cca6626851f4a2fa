package devbackend

import (
	"crypto/subtle"
	"strings"
	"sync"

	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/internal/utils"
	"github.com/jrsteele09/homereno-client/users"
)

// Account is a marketplace user known to the development backend.
// Passwords are compared as given; this backend is never deployed.
type Account struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      users.RoleType
	AvatarURL *string
}

// DefaultAccounts is one account per role, all with password "password".
func DefaultAccounts() []Account {
	return []Account{
		{Email: "customer@homereno.dev", Password: "password", FirstName: "Casey", LastName: "Customer", Role: users.RoleCustomer},
		{Email: "vendor@homereno.dev", Password: "password", FirstName: "Val", LastName: "Vendor", Role: users.RoleVendor,
			AvatarURL: utils.Ptr("https://avatars.homereno.dev/vendor.png")},
		{Email: "admin@homereno.dev", Password: "password", FirstName: "Ada", LastName: "Admin", Role: users.RoleAdmin},
	}
}

type accountDirectory struct {
	lock     sync.RWMutex
	accounts map[string]Account // keyed by lower-cased email
}

func newAccountDirectory(seed []Account) *accountDirectory {
	d := &accountDirectory{accounts: make(map[string]Account, len(seed))}
	for _, a := range seed {
		d.accounts[strings.ToLower(a.Email)] = a
	}
	return d
}

func (d *accountDirectory) Get(email string) (Account, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	a, ok := d.accounts[strings.ToLower(email)]
	if !ok {
		return Account{}, errors.ErrNotFound
	}
	return a, nil
}

func (d *accountDirectory) Authenticate(email, password string) (Account, error) {
	a, err := d.Get(email)
	if err != nil || subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) != 1 {
		return Account{}, errors.ErrLoginFailed
	}
	return a, nil
}

func (d *accountDirectory) Register(a Account) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	key := strings.ToLower(a.Email)
	if _, exists := d.accounts[key]; exists {
		return errors.Wrapf(errors.ErrRegistrationFailed, "account %s already exists", a.Email)
	}
	d.accounts[key] = a
	return nil
}

func (d *accountDirectory) CountByRole() map[users.RoleType]int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	counts := make(map[users.RoleType]int)
	for _, a := range d.accounts {
		counts[a.Role]++
	}
	return counts
}
