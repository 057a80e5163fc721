// Package csvio imports and exports resident lists in the
// semicolon-delimited format the dashboard exchanges with building
// managers. The format is fixed lines joined on ';' with no quoting, so
// the parsing stays a plain split rather than encoding/csv.
package csvio

import (
	"strings"

	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/utils"
)

// Header is the fixed first row of an exported resident list.
const Header = "nome;apartamento;bloco;telefone;Condominio/Local"

// ExportResidents renders residents as semicolon-delimited lines with
// the fixed header.
func ExportResidents(residents []model.Resident) string {
	lines := make([]string, 0, len(residents)+1)
	lines = append(lines, Header)
	for _, r := range residents {
		lines = append(lines, strings.Join([]string{
			r.Name, r.Apartment, r.Block, r.Phone, r.Building,
		}, ";"))
	}
	return strings.Join(lines, "\n")
}

// ParseResidents parses a semicolon-delimited resident list. A first
// line containing "nome" is treated as a header and skipped. Rows must
// carry all five fields non-empty to be accepted; anything else is
// silently dropped, matching the forgiving import the managers rely on.
// Blocks are upper-cased and names title-cased on the way in.
func ParseResidents(text string) []model.Resident {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var out []model.Resident
	start := 0
	if len(lines) > 0 && strings.Contains(strings.ToLower(lines[0]), "nome") {
		start = 1
	}
	for _, line := range lines[start:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) < 5 {
			continue
		}
		name := strings.TrimSpace(fields[0])
		apt := strings.TrimSpace(fields[1])
		block := strings.TrimSpace(fields[2])
		phone := strings.TrimSpace(fields[3])
		building := strings.TrimSpace(fields[4])
		if name == "" || apt == "" || block == "" || phone == "" || building == "" {
			continue
		}
		out = append(out, model.Resident{
			Name:      utils.TitleCase(name),
			Apartment: apt,
			Block:     utils.NormalizeBlock(block),
			Phone:     phone,
			Building:  utils.TitleCase(building),
			Active:    true,
		})
	}
	return out
}
