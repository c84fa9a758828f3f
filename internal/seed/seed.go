package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/mynurseshift/backend/internal/domain"
	"github.com/mynurseshift/backend/internal/utils"
	"go.uber.org/zap"
)

type AccountStore interface {
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
}

var requiredColumns = []string{"email", "first_name", "last_name"}

// ImportAccounts reads a CSV roster with a header row and creates one Pending
// account per row. Recognised columns are email, first_name, last_name,
// phone, position, role and service_id. Rows whose email already exists are
// skipped; rows that fail are logged and skipped. It returns the number of
// accounts created.
func ImportAccounts(ctx context.Context, src io.Reader, store AccountStore, passwordHash, phoneRegion string, logger *zap.Logger) (int, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(headers[i]))
	}
	for _, column := range requiredColumns {
		if !slices.Contains(headers, column) {
			return 0, fmt.Errorf("missing column %q", column)
		}
	}

	created := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return created, fmt.Errorf("read line %d: %w", line, err)
		}

		record := make(map[string]string, len(headers))
		for i, value := range row {
			if i < len(headers) {
				record[headers[i]] = strings.TrimSpace(value)
			}
		}

		account, err := accountFromRecord(record, passwordHash, phoneRegion)
		if err != nil {
			logger.Warn("skipping invalid row", zap.Int("line", line), zap.Error(err))
			continue
		}

		if _, err := store.GetAccountByEmail(ctx, account.Email); err == nil {
			logger.Info("account already exists", zap.Int("line", line), zap.String("email", account.Email))
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return created, err
		}

		if err := store.CreateAccount(ctx, account); err != nil {
			logger.Warn("failed to create account", zap.Int("line", line), zap.String("email", account.Email), zap.Error(err))
			continue
		}
		created++
	}

	return created, nil
}

func accountFromRecord(record map[string]string, passwordHash, phoneRegion string) (*domain.Account, error) {
	account := &domain.Account{
		Email:        record["email"],
		PasswordHash: passwordHash,
		FirstName:    record["first_name"],
		LastName:     record["last_name"],
		Role:         domain.RoleMember,
		Status:       domain.StatusPending,
	}
	if account.Email == "" || account.FirstName == "" || account.LastName == "" {
		return nil, errors.New("email, first_name and last_name are required")
	}

	if phone := record["phone"]; phone != "" {
		normalized, err := utils.NormalizePhone(phone, phoneRegion)
		if err != nil {
			return nil, err
		}
		account.Phone = &normalized
	}
	if position := record["position"]; position != "" {
		account.Position = &position
	}
	if code := record["role"]; code != "" {
		role, err := domain.ParseRole(strings.ToUpper(code))
		if err != nil {
			return nil, err
		}
		if role == domain.RoleSuperAdministrator {
			return nil, errors.New("super administrators cannot be imported")
		}
		account.Role = role
	}
	if raw := record["service_id"]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid service_id %q", raw)
		}
		account.ServiceID = &id
	}

	return account, nil
}
