package store

import (
	"errors"
	"regexp"
	"strings"

	"github.com/yomogi/linkup/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	phoneRe    = regexp.MustCompile(`^[0-9]{10}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	passwordUpperRe  = regexp.MustCompile(`[A-Z]`)
	passwordLowerRe  = regexp.MustCompile(`[a-z]`)
	passwordDigitRe  = regexp.MustCompile(`[0-9]`)
	passwordSymbolRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

const bcryptCost = 12

// Accounts is the credential store: registration, authentication and
// profile mutation, keyed by username (case-insensitive) or phone.
type Accounts struct {
	db *gorm.DB
}

// NewAccounts creates an Accounts store over the given handle.
func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Field: "password", Rule: "at least 8 characters"}
	}
	// bcrypt truncates input at 72 bytes and newer versions refuse it outright.
	if len(password) > 72 {
		return &ValidationError{Field: "password", Rule: "at most 72 bytes"}
	}
	if !passwordUpperRe.MatchString(password) ||
		!passwordLowerRe.MatchString(password) ||
		!passwordDigitRe.MatchString(password) ||
		!passwordSymbolRe.MatchString(password) {
		return &ValidationError{Field: "password", Rule: "must include upper, lower, digit and symbol"}
	}
	return nil
}

func validateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return &ValidationError{Field: "email", Rule: "must look like local@domain.tld"}
	}
	return nil
}

// Register validates and persists a new account. Email is optional; pass ""
// to omit it. Uniqueness of username, phone and email is enforced by the
// storage layer's unique indexes, so two concurrent registrations of the same
// name cannot both succeed.
func (a *Accounts) Register(username, phone, password, email string) (*model.Account, error) {
	if !usernameRe.MatchString(username) {
		return nil, &ValidationError{Field: "username", Rule: "letters, digits and underscores only"}
	}
	if !phoneRe.MatchString(phone) {
		return nil, &ValidationError{Field: "phone", Rule: "exactly 10 digits"}
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, storageErr("accounts.register", err)
	}

	acc := &model.Account{
		Username:     strings.ToLower(username),
		Phone:        phone,
		PasswordHash: string(hash),
	}
	if email != "" {
		acc.Email = &email
	}

	if err := a.db.Create(acc).Error; err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return nil, &ConflictError{Field: field}
		}
		return nil, storageErr("accounts.register", err)
	}
	return acc, nil
}

// Resolve looks up an account by username (case-insensitive) or exact phone.
func (a *Accounts) Resolve(identifier string) (*model.Account, error) {
	var acc model.Account
	err := a.db.Where("username = ? OR phone = ?", strings.ToLower(identifier), identifier).
		First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "account"}
	}
	if err != nil {
		return nil, storageErr("accounts.resolve", err)
	}
	return &acc, nil
}

// Authenticate verifies the password for the account matching identifier.
// The verdict is a single boolean: a missing account and a wrong password are
// indistinguishable to the caller.
func (a *Accounts) Authenticate(identifier, password string) (*model.Account, bool, error) {
	acc, err := a.Resolve(identifier)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, false, nil
	}
	return acc, true, nil
}

// UpdateEmail re-validates and sets the account's email. Idempotent: updating
// to the current value succeeds and changes nothing.
func (a *Accounts) UpdateEmail(accountID int64, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	err := a.db.Model(&model.Account{}).Where("id = ?", accountID).
		Update("email", email).Error
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return &ConflictError{Field: field}
		}
		return storageErr("accounts.update_email", err)
	}
	return nil
}

// UpdatePassword re-validates and rehashes the account's password.
func (a *Accounts) UpdatePassword(accountID int64, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return storageErr("accounts.update_password", err)
	}
	err = a.db.Model(&model.Account{}).Where("id = ?", accountID).
		Update("password_hash", string(hash)).Error
	if err != nil {
		return storageErr("accounts.update_password", err)
	}
	return nil
}

// UpdateProfileImage sets the account's profile image reference.
func (a *Accounts) UpdateProfileImage(accountID int64, ref string) error {
	err := a.db.Model(&model.Account{}).Where("id = ?", accountID).
		Update("profile_image", ref).Error
	if err != nil {
		return storageErr("accounts.update_profile_image", err)
	}
	return nil
}

// Delete removes the account and cascades into friend requests, messages and
// media in one transaction; either everything goes or nothing does.
func (a *Accounts) Delete(accountID int64) error {
	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sender_id = ? OR receiver_id = ?", accountID, accountID).
			Delete(&model.FriendRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sender_id = ? OR receiver_id = ?", accountID, accountID).
			Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", accountID).
			Delete(&model.MediaItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Account{}, accountID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "account"}
		}
		return nil
	})
	if err != nil {
		return storageErr("accounts.delete", err)
	}
	return nil
}

// Search returns accounts whose username or phone contains the query
// substring, for the friend-request picker.
func (a *Accounts) Search(query string) ([]model.Account, error) {
	var accs []model.Account
	pattern := "%" + strings.ToLower(query) + "%"
	err := a.db.Where("username LIKE ? OR phone LIKE ?", pattern, pattern).
		Order("username").Find(&accs).Error
	if err != nil {
		return nil, storageErr("accounts.search", err)
	}
	return accs, nil
}
