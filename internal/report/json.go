package report

import (
	"encoding/json"
)

type tableJSON struct {
	DocumentNumber string    `json:"document_number"`
	SourceName     string    `json:"source_name"`
	Visits         int       `json:"visits"`
	Rows           []rowJSON `json:"rows"`
}

type rowJSON struct {
	Field  string    `json:"field"`
	Values []*string `json:"values"`
}

// MarshalJSON encodes the table row by row; null cells are JSON null.
func (t *Table) MarshalJSON() ([]byte, error) {
	out := tableJSON{
		DocumentNumber: t.DocumentNumber,
		SourceName:     t.SourceName,
		Visits:         t.Visits(),
		Rows:           make([]rowJSON, len(t.Fields)),
	}
	for i := range t.Fields {
		field, values := t.Row(i)
		out.Rows[i] = rowJSON{Field: field, Values: values}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (t *Table) UnmarshalJSON(data []byte) error {
	var in tableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	t.DocumentNumber = in.DocumentNumber
	t.SourceName = in.SourceName
	t.Fields = make([]string, len(in.Rows))
	t.columns = make([][]*string, in.Visits)
	for v := range t.columns {
		t.columns[v] = make([]*string, len(in.Rows))
	}
	for i, r := range in.Rows {
		t.Fields[i] = r.Field
		for v := 0; v < in.Visits && v < len(r.Values); v++ {
			t.columns[v][i] = r.Values[v]
		}
	}
	return nil
}
