// Package directorytest provides an in-memory directory.Directory
// implementation for tests. It models just enough Active Directory
// behavior for the account, group and identity packages: GUID assignment
// on add, equality filters including the hex-escaped binary objectGUID
// form, idempotency result codes on membership changes and unicodePwd
// handling for bind checks.
package directorytest

import (
	"encoding/hex"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"

	"github.com/doorkeep/doorkeep/internal/directory"
)

type entryRecord struct {
	objectClasses []string
	attrs         map[string][]string
	guid          []byte // objectGUID wire bytes (little-endian layout)
}

// Fake is an in-memory stand-in for a directory server.
// The zero value is not usable; call New.
type Fake struct {
	mu sync.Mutex

	entries   map[string]*entryRecord
	passwords map[string]string // userPrincipalName -> password

	// SearchCalls counts Search invocations, letting tests assert that a
	// cache hit performed no directory round trip.
	SearchCalls int

	// PasswordPolicy, when set, vets new passwords; returning an error
	// makes the unicodePwd replace fail like a server-side policy would.
	PasswordPolicy func(password string) error

	// NextErr, when set, is returned by the next session operation and
	// then cleared.
	NextErr error
}

// New creates an empty fake directory.
func New() *Fake {
	return &Fake{
		entries:   make(map[string]*entryRecord),
		passwords: make(map[string]string),
	}
}

// Do runs fn against an in-memory session. There is no connection to
// release, but the scoping contract is the same as the real client's.
func (f *Fake) Do(fn func(directory.Session) error) error {
	return fn(&fakeSession{fake: f})
}

// CheckBind verifies a user credential against the stored passwords.
func (f *Fake) CheckBind(user, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.passwords[user]
	if !ok || password == "" || stored != password {
		return directory.ErrInvalidCredentials
	}

	return nil
}

// Seed inserts an entry with a fresh GUID and returns its textual form.
// It bypasses the session API so tests can set up state directly.
func (f *Fake) Seed(dn string, attrs map[string][]string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()

	guid := uuid.New()
	record := &entryRecord{
		attrs: make(map[string][]string, len(attrs)),
		guid:  leBytes(guid),
	}

	for name, values := range attrs {
		record.attrs[name] = append([]string(nil), values...)
	}

	f.entries[dn] = record

	return guid
}

// SetPassword stores a credential for CheckBind without going through the
// unicodePwd dance.
func (f *Fake) SetPassword(user, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.passwords[user] = password
}

// Attr returns the values of an attribute of a stored entry.
func (f *Fake) Attr(dn, name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.entries[dn]
	if !ok {
		return nil
	}

	return append([]string(nil), record.attrs[name]...)
}

// HasEntry reports whether a DN exists.
func (f *Fake) HasEntry(dn string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.entries[dn]

	return ok
}

// takeErr pops the injected error, if any.
func (f *Fake) takeErr() error {
	err := f.NextErr
	f.NextErr = nil

	return err
}

type fakeSession struct {
	fake *Fake
}

func (s *fakeSession) Search(base, filter string, scope directory.Scope, attrs []string) ([]*directory.Entry, error) {
	f := s.fake

	f.mu.Lock()
	defer f.mu.Unlock()

	f.SearchCalls++

	if err := f.takeErr(); err != nil {
		return nil, err
	}

	name, value, ok := splitFilter(filter)
	if !ok {
		return nil, nil
	}

	var entries []*directory.Entry

	for dn, record := range f.entries {
		if !inScope(dn, base, scope) {
			continue
		}

		if matches(record, name, value) {
			entries = append(entries, snapshot(dn, record, attrs))
		}
	}

	return entries, nil
}

func (s *fakeSession) Add(dn string, objectClasses []string, attrs map[string][]string) error {
	f := s.fake

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.takeErr(); err != nil {
		return err
	}

	if _, exists := f.entries[dn]; exists {
		return directory.ErrEntryExists
	}

	record := &entryRecord{
		objectClasses: objectClasses,
		attrs:         make(map[string][]string, len(attrs)),
		guid:          leBytes(uuid.New()), // the directory assigns the GUID
	}

	for name, values := range attrs {
		record.attrs[name] = append([]string(nil), values...)
	}

	f.entries[dn] = record

	return nil
}

func (s *fakeSession) ModifyAdd(dn, attr string, values []string) error {
	f := s.fake

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.takeErr(); err != nil {
		return err
	}

	record, ok := f.entries[dn]
	if !ok {
		return directory.ErrNotFound
	}

	for _, value := range values {
		for _, existing := range record.attrs[attr] {
			if existing == value {
				return directory.ErrEntryExists
			}
		}

		record.attrs[attr] = append(record.attrs[attr], value)

		// membership is kept symmetric so memberOf reads work
		if attr == "member" {
			if memberRecord, found := f.entries[value]; found {
				memberRecord.attrs["memberOf"] = append(memberRecord.attrs["memberOf"], dn)
			}
		}
	}

	return nil
}

func (s *fakeSession) ModifyDelete(dn, attr string, values []string) error {
	f := s.fake

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.takeErr(); err != nil {
		return err
	}

	record, ok := f.entries[dn]
	if !ok {
		return directory.ErrNotFound
	}

	for _, value := range values {
		index := -1

		for i, existing := range record.attrs[attr] {
			if existing == value {
				index = i
				break
			}
		}

		if index < 0 {
			return directory.ErrNoSuchAttribute
		}

		record.attrs[attr] = append(record.attrs[attr][:index], record.attrs[attr][index+1:]...)

		if attr == "member" {
			if memberRecord, found := f.entries[value]; found {
				memberRecord.attrs["memberOf"] = remove(memberRecord.attrs["memberOf"], dn)
			}
		}
	}

	return nil
}

func (s *fakeSession) ModifyReplace(dn, attr string, values []string) error {
	f := s.fake

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.takeErr(); err != nil {
		return err
	}

	record, ok := f.entries[dn]
	if !ok {
		return directory.ErrNotFound
	}

	if attr == "unicodePwd" {
		return f.replacePassword(record, values)
	}

	record.attrs[attr] = append([]string(nil), values...)

	return nil
}

func (s *fakeSession) Delete(dn string) error {
	f := s.fake

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.takeErr(); err != nil {
		return err
	}

	if _, ok := f.entries[dn]; !ok {
		return directory.ErrNotFound
	}

	delete(f.entries, dn)

	return nil
}

// replacePassword decodes the quoted UTF-16LE wire form and stores the
// password keyed by the entry's userPrincipalName.
func (f *Fake) replacePassword(record *entryRecord, values []string) error {
	if len(values) != 1 {
		return directory.ErrConstraintViolation
	}

	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

	decoded, err := decoder.String(values[0])
	if err != nil {
		return directory.ErrConstraintViolation
	}

	if len(decoded) < 2 || decoded[0] != '"' || decoded[len(decoded)-1] != '"' {
		return directory.ErrConstraintViolation
	}

	password := decoded[1 : len(decoded)-1]

	if f.PasswordPolicy != nil {
		if errPolicy := f.PasswordPolicy(password); errPolicy != nil {
			return errPolicy
		}
	}

	upns := record.attrs["userPrincipalName"]
	if len(upns) == 0 {
		return directory.ErrConstraintViolation
	}

	f.passwords[upns[0]] = password

	return nil
}

func snapshot(dn string, record *entryRecord, attrs []string) *directory.Entry {
	entry := &directory.Entry{
		DN:         dn,
		Attributes: make(map[string][]string),
		Raw:        make(map[string][][]byte),
	}

	include := func(name string) bool {
		if len(attrs) == 0 {
			return true
		}

		for _, a := range attrs {
			if strings.EqualFold(a, name) {
				return true
			}
		}

		return false
	}

	for name, values := range record.attrs {
		if include(name) {
			entry.Attributes[name] = append([]string(nil), values...)
		}
	}

	if include("objectGUID") {
		entry.Raw["objectGUID"] = [][]byte{append([]byte(nil), record.guid...)}
		entry.Attributes["objectGUID"] = []string{string(record.guid)}
	}

	if include("distinguishedName") {
		entry.Attributes["distinguishedName"] = []string{dn}
	}

	return entry
}

func matches(record *entryRecord, name, value string) bool {
	if name == "objectClass" && value == "*" {
		return true
	}

	if strings.EqualFold(name, "objectGUID") {
		wanted, err := unescapeBytes(value)
		if err != nil {
			return false
		}

		return string(wanted) == string(record.guid)
	}

	for _, existing := range record.attrs[name] {
		if existing == value {
			return true
		}
	}

	return false
}

func inScope(dn, base string, scope directory.Scope) bool {
	switch scope {
	case directory.ScopeBase:
		return strings.EqualFold(dn, base)
	case directory.ScopeLevel:
		suffix := "," + base
		if !strings.HasSuffix(strings.ToLower(dn), strings.ToLower(suffix)) {
			return false
		}

		return !strings.Contains(dn[:len(dn)-len(suffix)], ",")
	default:
		return strings.HasSuffix(strings.ToLower(dn), strings.ToLower(","+base)) ||
			strings.EqualFold(dn, base)
	}
}

// splitFilter handles the single equality filters the core builds:
// (name=value).
func splitFilter(filter string) (string, string, bool) {
	if !strings.HasPrefix(filter, "(") || !strings.HasSuffix(filter, ")") {
		return "", "", false
	}

	inner := filter[1 : len(filter)-1]

	name, value, found := strings.Cut(inner, "=")
	if !found {
		return "", "", false
	}

	return name, value, true
}

// unescapeBytes reverses the \xx hex escaping of binary filter values.
func unescapeBytes(value string) ([]byte, error) {
	var out []byte

	for i := 0; i < len(value); {
		if value[i] == '\\' && i+3 <= len(value) {
			b, err := hex.DecodeString(value[i+1 : i+3])
			if err != nil {
				return nil, err
			}

			out = append(out, b[0])
			i += 3

			continue
		}

		out = append(out, value[i])
		i++
	}

	return out, nil
}

// remove drops value from values, preserving order.
func remove(values []string, value string) []string {
	out := values[:0]

	for _, v := range values {
		if v != value {
			out = append(out, v)
		}
	}

	return out
}

// leBytes renders a UUID in the directory's mixed-endian objectGUID
// layout (first three fields byte-swapped). Kept local so this package
// depends only on the directory contract.
func leBytes(g uuid.UUID) []byte {
	b := make([]byte, 16)
	copy(b, g[:])
	b[0], b[1], b[2], b[3] = g[3], g[2], g[1], g[0]
	b[4], b[5] = g[5], g[4]
	b[6], b[7] = g[7], g[6]

	return b
}
