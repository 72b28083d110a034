package wsstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// allowedSymbols are the non-alphanumeric characters the upstream grammar
// permits in group names and error messages.
const allowedSymbols = ` \|/+-.,:`

// DecodeError reports the first grammar violation found in a wsstore reply.
// Field names the offending key, Index its position in the grupy array (-1
// outside the array), and Value carries the raw offending token so callers
// can log a precise diagnostic.
type DecodeError struct {
	Field  string
	Index  int
	Value  string
	Reason string
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("decode wsstore reply: ")
	if e.Index >= 0 {
		fmt.Fprintf(&b, "group %d: ", e.Index)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "field %q: ", e.Field)
	}
	b.WriteString(e.Reason)
	if e.Value != "" {
		fmt.Fprintf(&b, " (got %s)", e.Value)
	}
	return b.String()
}

func decodeErr(field string, index int, raw json.RawMessage, reason string) *DecodeError {
	return &DecodeError{Field: field, Index: index, Value: string(raw), Reason: reason}
}

// Decode turns a raw wsstore reply into a typed Envelope. It is strict: any
// field violating the wire grammar fails with a *DecodeError, and no partial
// result is returned. A well-formed {"result":"false","error":...} reply is
// NOT an error here; it decodes to Failure and callers decide what to do.
func Decode(data []byte) (Envelope, error) {
	var top struct {
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &DecodeError{Index: -1, Reason: "reply is not a JSON object: " + err.Error()}
	}

	switch {
	case len(top.Result) == 0:
		return nil, decodeErr("result", -1, nil, "missing key")
	case top.Result[0] == '{':
		if len(top.Error) != 0 {
			return nil, decodeErr("error", -1, top.Error, "unexpected key in a data reply")
		}
		return decodeSuccess(top.Result)
	default:
		s, ok := asString(top.Result)
		if !ok || s != "false" {
			return nil, decodeErr("result", -1, top.Result, `must be an object or the string "false"`)
		}
		return decodeFailure(top.Error)
	}
}

func decodeSuccess(result json.RawMessage) (Envelope, error) {
	var res struct {
		Date  json.RawMessage `json:"date"`
		Time  json.RawMessage `json:"time"`
		Grupy json.RawMessage `json:"grupy"`
	}
	if err := json.Unmarshal(result, &res); err != nil {
		return nil, decodeErr("result", -1, nil, "result is not an object: "+err.Error())
	}

	date, derr := requireQuoted(res.Date, "date", -1)
	if derr != nil {
		return nil, derr
	}
	if !validDate(date) {
		return nil, decodeErr("date", -1, res.Date, "must match YYYY-MM-DD with month 01-12 and day 01-31")
	}
	clock, derr := requireQuoted(res.Time, "time", -1)
	if derr != nil {
		return nil, derr
	}
	if !validTime(clock) {
		return nil, decodeErr("time", -1, res.Time, "must match HH:MM with HH 00-23 and MM 00-59")
	}

	if len(res.Grupy) == 0 {
		return nil, decodeErr("grupy", -1, nil, "missing key")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(res.Grupy, &elems); err != nil {
		return nil, decodeErr("grupy", -1, res.Grupy, "must be an array")
	}

	groups := make([]GroupStatus, 0, len(elems))
	for i, raw := range elems {
		group, derr := decodeGroup(raw, i)
		if derr != nil {
			return nil, derr
		}
		groups = append(groups, group)
	}
	return Success{Date: date, Time: clock, Groups: groups}, nil
}

func decodeFailure(errValue json.RawMessage) (Envelope, error) {
	msg, derr := requireQuoted(errValue, "error", -1)
	if derr != nil {
		return nil, derr
	}
	if !allowedText(msg) {
		return nil, decodeErr("error", -1, errValue, "must be a non-empty string of the allowed character set")
	}
	return Failure{Message: msg}, nil
}

// decodeGroup validates one grupy element field by field, failing on the
// first violation in grammar order.
func decodeGroup(raw json.RawMessage, index int) (GroupStatus, *DecodeError) {
	var rg struct {
		Status        json.RawMessage `json:"status"`
		Lp            json.RawMessage `json:"lp"`
		GroupID       json.RawMessage `json:"idGrupy"`
		OpenCounters  json.RawMessage `json:"liczbaCzynnychStan"`
		Name          json.RawMessage `json:"nazwaGrupy"`
		Letter        json.RawMessage `json:"literaGrupy"`
		QueueLength   json.RawMessage `json:"liczbaKlwKolejce"`
		CurrentNumber json.RawMessage `json:"aktualnyNumer"`
		ServiceTime   json.RawMessage `json:"czasObslugi"`
	}
	if err := json.Unmarshal(raw, &rg); err != nil {
		return GroupStatus{}, decodeErr("grupy", index, raw, "element is not an object")
	}

	var group GroupStatus

	// status: absent, null, "0" or "1".
	switch {
	case len(rg.Status) == 0 || isNull(rg.Status):
		group.Status = StatusUnknown
	default:
		s, ok := asString(rg.Status)
		if !ok || (s != "0" && s != "1") {
			return GroupStatus{}, decodeErr("status", index, rg.Status, `must be null, "0" or "1"`)
		}
		if s == "0" {
			group.Status = StatusClosed
		} else {
			group.Status = StatusOpen
		}
	}

	// lp: null or a quoted 1-2 digit number without a leading zero.
	switch {
	case len(rg.Lp) == 0:
		return GroupStatus{}, decodeErr("lp", index, nil, "missing key")
	case isNull(rg.Lp):
		// ordinal absent
	default:
		s, ok := asString(rg.Lp)
		if !ok || !digitsNoLeadingZero(s, 2) {
			return GroupStatus{}, decodeErr("lp", index, rg.Lp, "must be null or a quoted 1-2 digit number without a leading zero")
		}
		v, _ := strconv.Atoi(s)
		group.Ordinal = &v
	}

	// idGrupy: quoted digits, 1-7 long, first digit nonzero.
	s, derr := requireQuoted(rg.GroupID, "idGrupy", index)
	if derr != nil {
		return GroupStatus{}, derr
	}
	if !digitsNoLeadingZero(s, 7) {
		return GroupStatus{}, decodeErr("idGrupy", index, rg.GroupID, "must be a quoted 1-7 digit number without a leading zero")
	}
	group.GroupID, _ = strconv.ParseInt(s, 10, 64)

	// liczbaCzynnychStan: unquoted integer 0-99.
	n, derr := requireUnquotedInt(rg.OpenCounters, "liczbaCzynnychStan", index, 99)
	if derr != nil {
		return GroupStatus{}, derr
	}
	group.OpenCounters = n

	// nazwaGrupy: non-empty string of the allowed character set.
	s, derr = requireQuoted(rg.Name, "nazwaGrupy", index)
	if derr != nil {
		return GroupStatus{}, derr
	}
	if !allowedText(s) {
		return GroupStatus{}, decodeErr("nazwaGrupy", index, rg.Name, "must be a non-empty string of the allowed character set")
	}
	group.Name = s

	// literaGrupy: empty or one capital letter.
	s, derr = requireQuoted(rg.Letter, "literaGrupy", index)
	if derr != nil {
		return GroupStatus{}, derr
	}
	if len(s) > 1 || (len(s) == 1 && (s[0] < 'A' || s[0] > 'Z')) {
		return GroupStatus{}, decodeErr("literaGrupy", index, rg.Letter, "must be empty or one capital letter")
	}
	group.Letter = s

	// liczbaKlwKolejce: unquoted integer 0-999.
	n, derr = requireUnquotedInt(rg.QueueLength, "liczbaKlwKolejce", index, 999)
	if derr != nil {
		return GroupStatus{}, derr
	}
	group.QueueLength = n

	// aktualnyNumer: empty, 1-3 digits, or capital letter + 3 digits.
	s, derr = requireQuoted(rg.CurrentNumber, "aktualnyNumer", index)
	if derr != nil {
		return GroupStatus{}, derr
	}
	num, err := ParseCurrentNumber(s)
	if err != nil {
		return GroupStatus{}, decodeErr("aktualnyNumer", index, rg.CurrentNumber, err.Error())
	}
	group.CurrentNumber = num

	// czasObslugi: absent, null, or a quoted 1-3 digit unsigned integer.
	switch {
	case len(rg.ServiceTime) == 0 || isNull(rg.ServiceTime):
		// service time absent
	default:
		s, ok := asString(rg.ServiceTime)
		if !ok || !digitsLeadingZeroRule(s, 3) {
			return GroupStatus{}, decodeErr("czasObslugi", index, rg.ServiceTime, "must be a quoted 1-3 digit number without a leading zero")
		}
		v, _ := strconv.Atoi(s)
		group.ServiceTime = &v
	}

	return group, nil
}

// DecodeOffices turns the office directory reply, a JSON array of
// {"name","key"} objects, into Office values. Both fields must be non-empty;
// key is otherwise opaque.
func DecodeOffices(data []byte) ([]Office, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, &DecodeError{Index: -1, Reason: "directory reply is not a JSON array: " + err.Error()}
	}
	offices := make([]Office, 0, len(elems))
	for i, raw := range elems {
		var ro struct {
			Name json.RawMessage `json:"name"`
			Key  json.RawMessage `json:"key"`
		}
		if err := json.Unmarshal(raw, &ro); err != nil {
			return nil, decodeErr("", i, raw, "element is not an object")
		}
		name, derr := requireQuoted(ro.Name, "name", i)
		if derr != nil {
			return nil, derr
		}
		if !allowedText(name) {
			return nil, decodeErr("name", i, ro.Name, "must be a non-empty string of the allowed character set")
		}
		key, derr := requireQuoted(ro.Key, "key", i)
		if derr != nil {
			return nil, derr
		}
		if key == "" {
			return nil, decodeErr("key", i, ro.Key, "must be non-empty")
		}
		offices = append(offices, Office{Name: name, Key: key})
	}
	return offices, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(raw, []byte("null"))
}

func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func requireQuoted(raw json.RawMessage, field string, index int) (string, *DecodeError) {
	if len(raw) == 0 {
		return "", decodeErr(field, index, nil, "missing key")
	}
	s, ok := asString(raw)
	if !ok {
		return "", decodeErr(field, index, raw, "must be a quoted string")
	}
	return s, nil
}

// requireUnquotedInt validates a bare (unquoted) JSON number literal in
// [0, max] with no sign, fraction, exponent, or leading zero.
func requireUnquotedInt(raw json.RawMessage, field string, index int, max int) (int, *DecodeError) {
	if len(raw) == 0 {
		return 0, decodeErr(field, index, nil, "missing key")
	}
	s := string(raw)
	if !digitsLeadingZeroRule(s, len(strconv.Itoa(max))) {
		return 0, decodeErr(field, index, raw, fmt.Sprintf("must be an unquoted integer 0-%d without a leading zero", max))
	}
	v, err := strconv.Atoi(s)
	if err != nil || v > max {
		return 0, decodeErr(field, index, raw, fmt.Sprintf("must be an unquoted integer 0-%d without a leading zero", max))
	}
	return v, nil
}

// digitsNoLeadingZero matches a positive number: first digit nonzero, at
// most maxLen digits.
func digitsNoLeadingZero(s string, maxLen int) bool {
	if len(s) == 0 || len(s) > maxLen || !allDigits(s) {
		return false
	}
	return s[0] != '0'
}

// digitsLeadingZeroRule matches an unsigned number: no leading zero unless
// the value is a single "0".
func digitsLeadingZeroRule(s string, maxLen int) bool {
	if len(s) == 0 || len(s) > maxLen || !allDigits(s) {
		return false
	}
	return s == "0" || s[0] != '0'
}

// allowedText reports whether s is non-empty and built only from letters,
// digits, and the grammar's fixed symbol set.
func allowedText(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		if !strings.ContainsRune(allowedSymbols, r) {
			return false
		}
	}
	return true
}

// validDate checks the YYYY-MM-DD grammar. Days per month are not checked;
// the upstream contract only bounds the digits.
func validDate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6, 8, 9} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	month := int(s[5]-'0')*10 + int(s[6]-'0')
	day := int(s[8]-'0')*10 + int(s[9]-'0')
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// validTime checks the HH:MM grammar.
func validTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour <= 23 && minute <= 59
}
