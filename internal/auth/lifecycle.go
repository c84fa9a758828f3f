package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mynurseshift/backend/internal/domain"
	"github.com/mynurseshift/backend/internal/utils"
	"go.uber.org/zap"
)

// NewAccount is the input of registration and administrative creation.
// Status is accepted for compatibility with clients and always ignored.
type NewAccount struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Phone        *string
	Position     *string
	WorkingHours domain.JSONValue
	Role         domain.Role
	Status       domain.Status
	ServiceID    *int64
	SupervisorID *int64
}

// ProfileUpdate carries the fields to change; nil or unset fields are left
// untouched. The nullable references can be cleared with an explicit null.
type ProfileUpdate struct {
	Email        *string
	FirstName    *string
	LastName     *string
	Phone        domain.Nullable[string]
	Position     domain.Nullable[string]
	WorkingHours domain.Nullable[domain.JSONValue]
	Role         *domain.Role
	ServiceID    domain.Nullable[int64]
	SupervisorID domain.Nullable[int64]
}

type LifecycleConfig struct {
	BcryptCost  int
	ResetTTL    time.Duration
	PhoneRegion string
}

// Lifecycle owns account creation, the approve/reject decision, password
// changes and the notifications they trigger.
type Lifecycle struct {
	accounts AccountStore
	gate     *Gate
	notifier Notifier
	resets   ResetStore
	logger   *zap.Logger
	cfg      LifecycleConfig
	newToken func() string
}

func NewLifecycle(accounts AccountStore, gate *Gate, notifier Notifier, resets ResetStore, logger *zap.Logger, cfg LifecycleConfig) *Lifecycle {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 15 * time.Minute
	}
	return &Lifecycle{
		accounts: accounts,
		gate:     gate,
		notifier: notifier,
		resets:   resets,
		logger:   logger,
		cfg:      cfg,
		newToken: uuid.NewString,
	}
}

// Register is self-registration: always a Pending Member.
func (l *Lifecycle) Register(ctx context.Context, in NewAccount) (*domain.Account, error) {
	in.Role = domain.RoleMember
	return l.create(ctx, in)
}

// Create is administrative creation. A Manager may only create Members of
// their own service.
func (l *Lifecycle) Create(ctx context.Context, principal *domain.Account, in NewAccount) (*domain.Account, error) {
	if err := Authorize(principal, domain.RoleManager, domain.RoleSuperAdministrator); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		in.Role = domain.RoleMember
	}

	scope, err := l.gate.Scope(ctx, principal)
	if err != nil {
		return nil, err
	}
	if managed := scope.ServiceID(); managed != nil {
		if in.Role != domain.RoleMember {
			return nil, domain.NewError(domain.KindForbidden, "managers can only create member accounts")
		}
		if in.ServiceID == nil {
			in.ServiceID = managed
		} else if *in.ServiceID != *managed {
			return nil, domain.NewError(domain.KindForbidden, "managers can only create accounts in their own service")
		}
	}

	return l.create(ctx, in)
}

func (l *Lifecycle) create(ctx context.Context, in NewAccount) (*domain.Account, error) {
	if in.Password == "" {
		return nil, domain.NewError(domain.KindValidationFailed, "password is required")
	}
	if err := in.WorkingHours.Validate(); err != nil {
		return nil, err
	}
	phone, err := l.normalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password, l.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        phone,
		Position:     in.Position,
		WorkingHours: in.WorkingHours,
		Role:         in.Role,
		Status:       domain.StatusPending,
		ServiceID:    in.ServiceID,
		SupervisorID: in.SupervisorID,
	}

	if err := l.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	l.notify(ctx, domain.MailMessage{
		Type: domain.MailAccountCreated,
		To:   account.Email,
		Data: domain.MailData{FirstName: account.FirstName, LastName: account.LastName},
	})

	return account, nil
}

// Decide approves or rejects an account. The status change is committed
// before the notification is sent and stays committed if sending fails.
func (l *Lifecycle) Decide(ctx context.Context, principal *domain.Account, id int64, approved bool, approverName string) (*domain.Account, error) {
	if err := Authorize(principal, domain.RoleManager, domain.RoleSuperAdministrator); err != nil {
		return nil, err
	}

	target, err := l.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.gate.CheckAccount(ctx, principal, target); err != nil {
		return nil, err
	}

	status, mailType := domain.StatusInactive, domain.MailAccountRejected
	if approved {
		status, mailType = domain.StatusActive, domain.MailAccountActivated
	}

	updated, err := l.accounts.UpdateAccountStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(approverName) == "" {
		approverName = principal.FullName()
	}

	l.notify(ctx, domain.MailMessage{
		Type: mailType,
		To:   updated.Email,
		Data: domain.MailData{
			FirstName:    updated.FirstName,
			LastName:     updated.LastName,
			ApproverName: approverName,
		},
	})

	return updated, nil
}

// UpdateProfile applies a profile change made by the account itself or by a
// Manager/SuperAdministrator in scope. Editing one's own profile does not
// depend on the data scope. Members may not touch role, service or
// supervisor; Managers may not move themselves; only a SuperAdministrator may
// change roles.
func (l *Lifecycle) UpdateProfile(ctx context.Context, principal *domain.Account, id int64, in ProfileUpdate) (*domain.Account, error) {
	if err := Authorize(principal); err != nil {
		return nil, err
	}

	target, err := l.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var managed *int64
	if target.ID != principal.ID {
		scope, err := l.gate.Scope(ctx, principal)
		if err != nil {
			return nil, err
		}
		if !scope.Allows(target) {
			return nil, domain.ErrForbidden
		}
		managed = scope.ServiceID()
	}

	if principal.Role == domain.RoleMember && (in.Role != nil || in.ServiceID.Set || in.SupervisorID.Set) {
		return nil, domain.NewError(domain.KindForbidden, "members cannot change role, service or supervisor")
	}
	if in.Role != nil && principal.Role != domain.RoleSuperAdministrator {
		return nil, domain.NewError(domain.KindForbidden, "only a super administrator can change roles")
	}
	if principal.Role == domain.RoleManager && target.ID == principal.ID && in.ServiceID.Set {
		return nil, domain.NewError(domain.KindForbidden, "managers cannot change their own service")
	}
	if managed != nil && in.ServiceID.Set && (in.ServiceID.Value == nil || *in.ServiceID.Value != *managed) {
		return nil, domain.NewError(domain.KindForbidden, "managers cannot move accounts out of their service")
	}

	if in.Email != nil {
		target.Email = strings.TrimSpace(*in.Email)
	}
	if in.FirstName != nil {
		target.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		target.LastName = *in.LastName
	}
	if in.Phone.Set {
		phone, err := l.normalizePhone(in.Phone.Value)
		if err != nil {
			return nil, err
		}
		target.Phone = phone
	}
	if in.Position.Set {
		target.Position = in.Position.Value
	}
	if in.WorkingHours.Set {
		target.WorkingHours = nil
		if in.WorkingHours.Value != nil {
			if err := in.WorkingHours.Value.Validate(); err != nil {
				return nil, err
			}
			target.WorkingHours = *in.WorkingHours.Value
		}
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, domain.NewError(domain.KindValidationFailed, "invalid role")
		}
		target.Role = *in.Role
	}
	if in.ServiceID.Set {
		if v := in.ServiceID.Value; v != nil && *v <= 0 {
			return nil, domain.NewError(domain.KindValidationFailed, "invalid service")
		}
		target.ServiceID = in.ServiceID.Value
		target.Service = nil
	}
	if in.SupervisorID.Set {
		if v := in.SupervisorID.Value; v != nil {
			if *v <= 0 {
				return nil, domain.NewError(domain.KindValidationFailed, "invalid supervisor")
			}
			if *v == target.ID {
				return nil, domain.NewError(domain.KindValidationFailed, "an account cannot supervise itself")
			}
		}
		target.SupervisorID = in.SupervisorID.Value
		target.Supervisor = nil
	}

	if err := l.accounts.UpdateAccount(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// Delete removes an account in scope. It is irreversible.
func (l *Lifecycle) Delete(ctx context.Context, principal *domain.Account, id int64) error {
	if err := Authorize(principal, domain.RoleManager, domain.RoleSuperAdministrator); err != nil {
		return err
	}

	target, err := l.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if err := l.gate.CheckAccount(ctx, principal, target); err != nil {
		return err
	}

	return l.accounts.DeleteAccount(ctx, id)
}

// ChangePassword lets an account replace its own password.
func (l *Lifecycle) ChangePassword(ctx context.Context, principal *domain.Account, oldPassword, newPassword string) error {
	if err := Authorize(principal); err != nil {
		return err
	}

	ok, err := ComparePassword(principal.PasswordHash, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}

	return l.overwritePassword(ctx, principal, newPassword)
}

// SetPassword is an administrative password overwrite for an account in scope.
func (l *Lifecycle) SetPassword(ctx context.Context, principal *domain.Account, id int64, newPassword string) error {
	if err := Authorize(principal, domain.RoleManager, domain.RoleSuperAdministrator); err != nil {
		return err
	}

	target, err := l.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if err := l.gate.CheckAccount(ctx, principal, target); err != nil {
		return err
	}

	return l.overwritePassword(ctx, target, newPassword)
}

// RequestPasswordReset stores a reset challenge and mails it. Unknown emails
// succeed silently so the endpoint cannot be used to probe accounts.
func (l *Lifecycle) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := l.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	token := l.newToken()
	if err := l.resets.Save(ctx, account.Email, token, l.cfg.ResetTTL); err != nil {
		return err
	}

	l.notify(ctx, domain.MailMessage{
		Type: domain.MailPasswordReset,
		To:   account.Email,
		Data: domain.MailData{
			FirstName:  account.FirstName,
			LastName:   account.LastName,
			ResetToken: token,
			Expiration: int(l.cfg.ResetTTL / time.Minute),
		},
	})

	return nil
}

var errInvalidResetToken = domain.NewError(domain.KindValidationFailed, "invalid or expired reset token")

// ResetPassword overwrites the password once the challenge issued by
// RequestPasswordReset is presented. Status is left as it is.
func (l *Lifecycle) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	stored, err := l.resets.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errInvalidResetToken
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return errInvalidResetToken
	}

	account, err := l.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errInvalidResetToken
		}
		return err
	}

	if err := l.overwritePassword(ctx, account, newPassword); err != nil {
		return err
	}

	if err := l.resets.Delete(ctx, email); err != nil {
		l.logger.Warn("failed to delete password reset challenge", zap.String("email", email), zap.Error(err))
	}
	return nil
}

// Notify sends a generic notification email to an account in scope.
func (l *Lifecycle) Notify(ctx context.Context, principal *domain.Account, id int64, notificationType string, details domain.JSONValue) error {
	if err := Authorize(principal, domain.RoleManager, domain.RoleSuperAdministrator); err != nil {
		return err
	}

	target, err := l.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if err := l.gate.CheckAccount(ctx, principal, target); err != nil {
		return err
	}

	l.notify(ctx, domain.MailMessage{
		Type: domain.MailNotification,
		To:   target.Email,
		Data: domain.MailData{
			FirstName:           target.FirstName,
			LastName:            target.LastName,
			NotificationType:    notificationType,
			NotificationDetails: details,
		},
	})
	return nil
}

func (l *Lifecycle) overwritePassword(ctx context.Context, account *domain.Account, newPassword string) error {
	if newPassword == "" {
		return domain.NewError(domain.KindValidationFailed, "password is required")
	}
	hash, err := HashPassword(newPassword, l.cfg.BcryptCost)
	if err != nil {
		return err
	}
	account.PasswordHash = hash
	return l.accounts.UpdateAccount(ctx, account)
}

func (l *Lifecycle) normalizePhone(phone *string) (*string, error) {
	if phone == nil || strings.TrimSpace(*phone) == "" {
		return nil, nil
	}
	normalized, err := utils.NormalizePhone(*phone, l.cfg.PhoneRegion)
	if err != nil {
		return nil, err
	}
	return &normalized, nil
}

// notify never fails the caller; delivery problems are only logged.
func (l *Lifecycle) notify(ctx context.Context, msg domain.MailMessage) {
	if err := l.notifier.Notify(ctx, msg); err != nil {
		l.logger.Warn("failed to dispatch notification",
			zap.String("type", string(msg.Type)),
			zap.String("to", msg.To),
			zap.Error(err),
		)
	}
}
