package batch

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/model"
)

// ParseCSV reads a lead list from CSV. The "email" column is mandatory;
// header names are matched case-insensitively, unknown columns are kept as
// lead metadata, and rows without an email are skipped with a warning.
func ParseCSV(r io.Reader) ([]model.Lead, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("batch: csv is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "batch: read csv header")
	}

	cols := make([]string, len(header))
	emailIdx := -1
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(h))
		if cols[i] == "email" {
			emailIdx = i
		}
	}
	if emailIdx < 0 {
		return nil, eris.Errorf("batch: csv missing required column %q, found %v", "email", cols)
	}

	var leads []model.Lead
	rowNum := 1
	for {
		rowNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "batch: read csv row %d", rowNum)
		}

		lead := model.Lead{Source: model.SourceCSV}
		for i, val := range record {
			if i >= len(cols) {
				break
			}
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}
			switch cols[i] {
			case "email":
				lead.Email = val
			case "company":
				lead.Company = val
			case "first_name":
				lead.FirstName = val
			case "last_name":
				lead.LastName = val
			case "message":
				lead.Message = val
			case "source":
				lead.Source = model.LeadSource(val)
			default:
				if lead.Metadata == nil {
					lead.Metadata = make(map[string]string)
				}
				lead.Metadata[cols[i]] = val
			}
		}

		if lead.Email == "" {
			zap.L().Warn("skipping csv row without email", zap.Int("row", rowNum))
			continue
		}
		leads = append(leads, lead)
	}

	if len(leads) == 0 {
		return nil, eris.New("batch: no valid leads found in csv")
	}
	return leads, nil
}
