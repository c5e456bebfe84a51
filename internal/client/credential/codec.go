package credential

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// recordSeparator joins the fields of one persisted credential record.
// IDs and public keys must not contain it; that is a caller contract, not a
// runtime check.
const recordSeparator = ";"

// ErrMalformedRecord reports a persisted credential record that cannot be
// decoded: wrong field count or a non-numeric index. It indicates store
// corruption and is never silently dropped.
var ErrMalformedRecord = errors.New("malformed credential record")

// Encode turns an ordered credential list into store records of the form
// "<position>;<id>;<publicKey>". The position preserves registration order
// across the unordered set representation.
func Encode(creds []Credential) []string {
	records := make([]string, 0, len(creds))
	for i, c := range creds {
		records = append(records, strconv.Itoa(i)+recordSeparator+c.ID+recordSeparator+c.PublicKey)
	}
	return records
}

// Decode parses store records back into a credential list ordered by the
// numeric position field. Decode(Encode(x)) == x for any list with unique,
// separator-free ids.
func Decode(records []string) ([]Credential, error) {
	type indexed struct {
		pos  int
		cred Credential
	}

	parsed := make([]indexed, 0, len(records))
	for _, r := range records {
		fields := strings.Split(r, recordSeparator)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRecord, r)
		}
		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedRecord, r, err)
		}
		parsed = append(parsed, indexed{pos: pos, cred: Credential{ID: fields[1], PublicKey: fields[2]}})
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].pos < parsed[j].pos })

	creds := make([]Credential, 0, len(parsed))
	for _, p := range parsed {
		creds = append(creds, p.cred)
	}
	return creds, nil
}
