package datafile

import (
	"os"
	"time"
)

// UpdateRecord is one successfully published DNS record: which domain,
// under which selector, and when. Records persist across runs so old
// selectors can be retired once they age past the retention cutoff.
type UpdateRecord struct {
	Domain    string
	Selector  string
	CreatedAt time.Time
}

// LoadHistory reads the DNS update history. A missing file is not an
// error; the first run starts with an empty history. Rows whose timestamp
// does not parse are dropped, since a record without a usable creation
// time can never be retired.
func LoadHistory(path string) ([]UpdateRecord, error) {
	rows, err := ReadTable(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []UpdateRecord
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		created, err := time.Parse(TimeLayout, row[2])
		if err != nil {
			continue
		}
		records = append(records, UpdateRecord{
			Domain:    row[0],
			Selector:  row[1],
			CreatedAt: created,
		})
	}
	return records, nil
}

// SaveHistory rewrites the history file in one batched write, so a crash
// mid-run leaves the previous file intact.
func SaveHistory(path string, records []UpdateRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Domain, r.Selector, r.CreatedAt.Format(TimeLayout)})
	}
	return WriteTable(path, rows)
}
