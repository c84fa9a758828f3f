package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mynurseshift/backend/internal/domain"
)

var commonFirstNames = []string{
	"Camille", "Léa", "Manon", "Chloé", "Emma", "Inès", "Sarah", "Julie",
	"Lucas", "Hugo", "Louis", "Thomas", "Nathan", "Théo", "Antoine", "Maxime",
}

var commonLastNames = []string{
	"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit", "Durand",
	"Leroy", "Moreau", "Simon", "Laurent", "Lefebvre", "Michel", "Garcia", "David",
}

var positions = []string{
	"Infirmier(e)", "Infirmier(e) de bloc", "Aide-soignant(e)", "Cadre de santé", "Puéricultrice",
}

var poleNames = []string{
	"Médecine", "Chirurgie", "Urgences", "Femme-Enfant", "Gériatrie", "Psychiatrie",
}

var serviceNames = []string{
	"Cardiologie", "Pneumologie", "Néphrologie", "Orthopédie", "Réanimation",
	"Maternité", "Pédiatrie", "Soins de suite", "Neurologie", "Oncologie",
}

func GenerateRandomName() (string, string) {
	return commonFirstNames[rand.Intn(len(commonFirstNames))], commonLastNames[rand.Intn(len(commonLastNames))]
}

// asciiFold drops accents so generated names can be used in email addresses.
var asciiFold = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e", "ë", "e", "à", "a", "â", "a",
	"î", "i", "ï", "i", "ô", "o", "ù", "u", "û", "u", "ç", "c", " ", "", "'", "",
)

func GenerateEmail(firstName, lastName, domainName string) string {
	local := asciiFold.Replace(strings.ToLower(firstName + "." + lastName))
	return fmt.Sprintf("%s%s@%s", local, GenerateRandomID(0, 3), domainName)
}

// GenerateRandomAccount builds a Pending Member with the given password hash.
func GenerateRandomAccount(passwordHash string, emailDomainName string, serviceID *int64) *domain.Account {
	firstName, lastName := GenerateRandomName()
	position := positions[rand.Intn(len(positions))]

	return &domain.Account{
		Email:        GenerateEmail(firstName, lastName, emailDomainName),
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Position:     &position,
		WorkingHours: GenerateRandomWorkingHours(),
		Role:         domain.RoleMember,
		Status:       domain.StatusPending,
		ServiceID:    serviceID,
	}
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// GenerateRandomWorkingHours returns a JSON object mapping a random subset of
// weekdays to a shift slot.
func GenerateRandomWorkingHours() domain.JSONValue {
	slots := []string{"07:00-19:00", "19:00-07:00", "08:00-16:00"}
	days := GenerateRandomSubset(weekdays)

	parts := make([]string, 0, len(days))
	for _, day := range days {
		parts = append(parts, fmt.Sprintf("%q:%q", day, slots[rand.Intn(len(slots))]))
	}
	return domain.JSONValue("{" + strings.Join(parts, ",") + "}")
}

func GenerateRandomPole() *domain.Pole {
	name := poleNames[rand.Intn(len(poleNames))]
	return &domain.Pole{
		Name:        "Pôle " + name,
		Code:        strings.ToUpper(asciiFold.Replace(strings.ToLower(name)))[:3] + GenerateRandomID(0, 2),
		Description: "Pôle " + name + " " + GenerateRandomID(4, 0),
		Status:      domain.UnitStatusActive,
	}
}

func GenerateRandomService(poleID int64) *domain.Service {
	name := serviceNames[rand.Intn(len(serviceNames))]
	return &domain.Service{
		Name:        name,
		Description: "Service de " + strings.ToLower(name),
		Capacity:    int32(rand.Intn(30) + 10),
		Status:      domain.UnitStatusActive,
		PoleID:      poleID,
	}
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

var digits = "0123456789"

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	randomID := make([]rune, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = letters[rand.Intn(26)]
		} else {
			randomID[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(randomID)
}

// GenerateRandomSubset returns a non-empty random subset using a Fisher-Yates shuffle.
func GenerateRandomSubset[T any](arr []T) []T {
	arrCopy := append([]T{}, arr...)

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	l := rand.Intn(len(arrCopy)) + 1
	return arrCopy[:l]
}
