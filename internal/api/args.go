package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"retouch-bot/internal/domain/entity"
)

const defaultLUTIntensity = 1.0

// parsePointArgs разбирает аргументы /point: "X Y [fg|bg]", запятые допустимы
func parsePointArgs(args string) (x, y, label string, err error) {
	fields := strings.Fields(strings.ReplaceAll(args, ",", " "))
	switch len(fields) {
	case 2:
		return fields[0], fields[1], "", nil
	case 3:
		return fields[0], fields[1], fields[2], nil
	default:
		return "", "", "", fmt.Errorf("%w: usage /point X Y [fg|bg]", entity.ErrInvalidInput)
	}
}

// parseLUTArgs разбирает аргументы /lut: "name [intensity]"
func parseLUTArgs(args string) (name string, intensity float64, err error) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 1:
		return fields[0], defaultLUTIntensity, nil
	case 2:
		intensity, err = strconv.ParseFloat(strings.ReplaceAll(fields[1], ",", "."), 64)
		if err != nil {
			return "", 0, fmt.Errorf("%w: intensity must be a number", entity.ErrInvalidInput)
		}
		return fields[0], intensity, nil
	default:
		return "", 0, fmt.Errorf("%w: usage /lut name [intensity]", entity.ErrInvalidInput)
	}
}
