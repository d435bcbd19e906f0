package testkit

import (
	"context"
	"sort"
	"sync"
	"time"

	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
)

// Store is an in-memory implementation of every repository port. It mirrors the
// constraints of the SQL schema the services rely on: unique badges, unique process
// names per company, unique operation codes per process and cascading deletes.
// Ports whose method names overlap are exposed through typed views.
type Store struct {
	mu sync.RWMutex

	companies  map[uuid.UUID]models.Company
	users      map[uuid.UUID]models.User
	grants     map[models.OperatorAccess]struct{}
	processes  map[uuid.UUID]models.Process
	operations map[uuid.UUID]models.Operation
	sessions   map[uuid.UUID]models.TimingSession
	timings    map[uuid.UUID]models.OperationTiming
	tokens     map[string]models.AuthSession

	failNext error
}

// NewStore creates an empty store
func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.companies = make(map[uuid.UUID]models.Company)
	s.users = make(map[uuid.UUID]models.User)
	s.grants = make(map[models.OperatorAccess]struct{})
	s.processes = make(map[uuid.UUID]models.Process)
	s.operations = make(map[uuid.UUID]models.Operation)
	s.sessions = make(map[uuid.UUID]models.TimingSession)
	s.timings = make(map[uuid.UUID]models.OperationTiming)
	s.tokens = make(map[string]models.AuthSession)
}

// FailNext makes the next mutating call return err without applying any change
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func conflict(resource string) error {
	return errors.Conflict(resource + " already exists")
}

// Views

func (s *Store) Companies() ports.CompanyRepository        { return companyStore{s} }
func (s *Store) Users() *UserStore                         { return &UserStore{s} }
func (s *Store) AuthSessions() ports.AuthSessionRepository { return tokenStore{s} }
func (s *Store) Processes() ports.ProcessRepository        { return processStore{s} }
func (s *Store) Operations() ports.OperationRepository     { return operationStore{s} }
func (s *Store) Sessions() ports.SessionRepository         { return historyStore{s} }
func (s *Store) Timings() ports.TimingRepository           { return historyStore{s} }
func (s *Store) Reports() ports.ReportRepository           { return historyStore{s} }

// Inspection helpers for assertions

// SessionCount returns the number of stored timing sessions
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ProcessCount returns the number of stored processes
func (s *Store) ProcessCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// SessionsOf returns the sessions of a user ordered by start time
func (s *Store) SessionsOf(userID uuid.UUID) []models.TimingSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TimingSession
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Companies

type companyStore struct{ *Store }

func (c companyStore) Create(ctx context.Context, company *models.Company) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return err
	}
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}
	c.companies[company.ID] = *company
	return nil
}

func (c companyStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	company, ok := c.companies[id]
	if !ok {
		return nil, errors.NotFound("company")
	}
	return &company, nil
}

func (c companyStore) DeleteAll(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := int64(len(c.companies))
	c.reset()
	return n, nil
}

// Users and grants

// UserStore implements UserRepository and AccessRepository
type UserStore struct{ *Store }

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.users[id]
	if !ok {
		return nil, errors.NotFound("user")
	}
	return &user, nil
}

func (u *UserStore) GetByBadgeID(ctx context.Context, badgeID string) (*models.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, user := range u.users {
		if user.BadgeID == badgeID {
			found := user
			return &found, nil
		}
	}
	return nil, errors.NotFound("user")
}

func (u *UserStore) refsFor(userID uuid.UUID) []models.ProcessRef {
	refs := []models.ProcessRef{}
	for grant := range u.grants {
		if grant.UserID != userID {
			continue
		}
		if p, ok := u.processes[grant.ProcessID]; ok {
			refs = append(refs, models.ProcessRef{ID: p.ID, Name: p.Name})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs
}

func (u *UserStore) GetWithAccess(ctx context.Context, id uuid.UUID) (*models.UserWithAccess, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.users[id]
	if !ok {
		return nil, errors.NotFound("user")
	}
	return &models.UserWithAccess{User: user, Processes: u.refsFor(id)}, nil
}

func (u *UserStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.UserWithAccess, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	result := []*models.UserWithAccess{}
	for _, user := range u.users {
		if user.CompanyID == companyID {
			result = append(result, &models.UserWithAccess{User: user, Processes: u.refsFor(user.ID)})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (u *UserStore) badgeTaken(badgeID string, except uuid.UUID) bool {
	for _, user := range u.users {
		if user.BadgeID == badgeID && user.ID != except {
			return true
		}
	}
	return false
}

func (u *UserStore) Create(ctx context.Context, user *models.User, processIDs []uuid.UUID) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.takeFailure(); err != nil {
		return err
	}
	if u.badgeTaken(user.BadgeID, uuid.Nil) {
		return conflict("badge")
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	u.users[user.ID] = *user
	for _, processID := range processIDs {
		u.grants[models.OperatorAccess{UserID: user.ID, ProcessID: processID}] = struct{}{}
	}
	return nil
}

func (u *UserStore) Update(ctx context.Context, user *models.User, processIDs []uuid.UUID) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.takeFailure(); err != nil {
		return err
	}
	existing, ok := u.users[user.ID]
	if !ok {
		return errors.NotFound("user")
	}
	if u.badgeTaken(user.BadgeID, user.ID) {
		return conflict("badge")
	}
	user.CompanyID = existing.CompanyID
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	u.users[user.ID] = *user

	if processIDs != nil {
		for grant := range u.grants {
			if grant.UserID == user.ID {
				delete(u.grants, grant)
			}
		}
		for _, processID := range processIDs {
			u.grants[models.OperatorAccess{UserID: user.ID, ProcessID: processID}] = struct{}{}
		}
	}
	return nil
}

func (u *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.users[id]; !ok {
		return errors.NotFound("user")
	}
	delete(u.users, id)
	for grant := range u.grants {
		if grant.UserID == id {
			delete(u.grants, grant)
		}
	}
	for sid, session := range u.sessions {
		if session.UserID == id {
			u.deleteSessionLocked(sid)
		}
	}
	return nil
}

func (u *UserStore) HasAccess(ctx context.Context, userID, processID uuid.UUID) (bool, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.grants[models.OperatorAccess{UserID: userID, ProcessID: processID}]
	return ok, nil
}

func (u *UserStore) ListProcessesForUser(ctx context.Context, userID uuid.UUID) ([]*models.Process, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	result := []*models.Process{}
	for grant := range u.grants {
		if grant.UserID != userID {
			continue
		}
		if p, ok := u.processes[grant.ProcessID]; ok {
			p.OperationCount = u.countOperations(p.ID)
			result = append(result, &p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Auth sessions

type tokenStore struct{ *Store }

func (t tokenStore) Create(ctx context.Context, session *models.AuthSession) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.takeFailure(); err != nil {
		return err
	}
	if _, ok := t.tokens[session.Token]; ok {
		return conflict("auth session")
	}
	t.tokens[session.Token] = *session
	return nil
}

func (t tokenStore) Get(ctx context.Context, token string) (*models.AuthSession, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	session, ok := t.tokens[token]
	if !ok {
		return nil, errors.NotFound("auth session")
	}
	return &session, nil
}

func (t tokenStore) Delete(ctx context.Context, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tokens, token)
	return nil
}

func (t tokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int64
	for token, session := range t.tokens {
		if session.ExpiresAt.Before(now) {
			delete(t.tokens, token)
			n++
		}
	}
	return n, nil
}

// Processes

type processStore struct{ *Store }

func (s *Store) countOperations(processID uuid.UUID) int {
	n := 0
	for _, op := range s.operations {
		if op.ProcessID == processID {
			n++
		}
	}
	return n
}

func (s *Store) checkCodesLocked(operations []models.Operation) error {
	seen := make(map[string]struct{}, len(operations))
	for _, op := range operations {
		if _, dup := seen[op.Code]; dup {
			return conflict("operation code")
		}
		seen[op.Code] = struct{}{}
	}
	return nil
}

func (s *Store) insertOperationsLocked(processID uuid.UUID, operations []models.Operation) {
	for i := range operations {
		if operations[i].ID == uuid.Nil {
			operations[i].ID = uuid.New()
		}
		operations[i].ProcessID = processID
		s.operations[operations[i].ID] = operations[i]
	}
}

func (p processStore) CreateWithOperations(ctx context.Context, process *models.Process, operations []models.Operation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return err
	}
	for _, existing := range p.processes {
		if existing.CompanyID == process.CompanyID && existing.Name == process.Name {
			return conflict("process name")
		}
	}
	if err := p.checkCodesLocked(operations); err != nil {
		return err
	}

	if process.ID == uuid.Nil {
		process.ID = uuid.New()
	}
	if process.CreatedAt.IsZero() {
		process.CreatedAt = time.Now().UTC()
	}
	process.OperationCount = len(operations)
	p.processes[process.ID] = *process
	p.insertOperationsLocked(process.ID, operations)
	return nil
}

func (p processStore) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Process, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	process, ok := p.processes[id]
	if !ok || process.CompanyID != companyID {
		return nil, errors.NotFound("process")
	}
	process.OperationCount = p.countOperations(id)
	return &process, nil
}

func (p processStore) GetByName(ctx context.Context, companyID uuid.UUID, name string) (*models.Process, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, process := range p.processes {
		if process.CompanyID == companyID && process.Name == name {
			process.OperationCount = p.countOperations(process.ID)
			return &process, nil
		}
	}
	return nil, errors.NotFound("process")
}

func (p processStore) List(ctx context.Context, companyID uuid.UUID) ([]*models.Process, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := []*models.Process{}
	for _, process := range p.processes {
		if process.CompanyID == companyID {
			process := process
			process.OperationCount = p.countOperations(process.ID)
			result = append(result, &process)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (p processStore) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return err
	}
	process, ok := p.processes[id]
	if !ok || process.CompanyID != companyID {
		return errors.NotFound("process")
	}
	delete(p.processes, id)
	for opID, op := range p.operations {
		if op.ProcessID == id {
			p.deleteOperationLocked(opID)
		}
	}
	for grant := range p.grants {
		if grant.ProcessID == id {
			delete(p.grants, grant)
		}
	}
	for sid, session := range p.sessions {
		if session.ProcessID == id {
			p.deleteSessionLocked(sid)
		}
	}
	return nil
}

// Operations

type operationStore struct{ *Store }

func (s *Store) deleteOperationLocked(id uuid.UUID) {
	delete(s.operations, id)
	for tid, timing := range s.timings {
		if timing.OperationID == id {
			delete(s.timings, tid)
		}
	}
}

func (s *Store) deleteSessionLocked(id uuid.UUID) {
	delete(s.sessions, id)
	for tid, timing := range s.timings {
		if timing.SessionID == id {
			delete(s.timings, tid)
		}
	}
}

func (s *Store) listOperationsLocked(processID uuid.UUID) []models.Operation {
	ops := []models.Operation{}
	for _, op := range s.operations {
		if op.ProcessID == processID {
			ops = append(ops, op)
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].SequenceNumber < ops[j].SequenceNumber })
	return ops
}

func (o operationStore) ListByProcess(ctx context.Context, processID uuid.UUID) ([]models.Operation, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.listOperationsLocked(processID), nil
}

func (o operationStore) GetByID(ctx context.Context, processID, id uuid.UUID) (*models.Operation, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	op, ok := o.operations[id]
	if !ok || op.ProcessID != processID {
		return nil, errors.NotFound("operation")
	}
	return &op, nil
}

func (o operationStore) codeTaken(processID uuid.UUID, code string, except uuid.UUID) bool {
	for _, op := range o.operations {
		if op.ProcessID == processID && op.Code == code && op.ID != except {
			return true
		}
	}
	return false
}

func (o operationStore) Insert(ctx context.Context, operation *models.Operation) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.takeFailure(); err != nil {
		return err
	}
	if o.codeTaken(operation.ProcessID, operation.Code, uuid.Nil) {
		return conflict("operation code")
	}
	if next := o.countOperations(operation.ProcessID); operation.SequenceNumber < 0 || operation.SequenceNumber > next {
		operation.SequenceNumber = next
	}
	for id, op := range o.operations {
		if op.ProcessID == operation.ProcessID && op.SequenceNumber >= operation.SequenceNumber {
			op.SequenceNumber++
			o.operations[id] = op
		}
	}
	if operation.ID == uuid.Nil {
		operation.ID = uuid.New()
	}
	o.operations[operation.ID] = *operation
	return nil
}

func (o operationStore) Update(ctx context.Context, operation *models.Operation) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.takeFailure(); err != nil {
		return err
	}
	existing, ok := o.operations[operation.ID]
	if !ok || existing.ProcessID != operation.ProcessID {
		return errors.NotFound("operation")
	}
	if o.codeTaken(operation.ProcessID, operation.Code, operation.ID) {
		return conflict("operation code")
	}
	operation.SequenceNumber = existing.SequenceNumber
	o.operations[operation.ID] = *operation
	return nil
}

func (o operationStore) DeleteAndRenumber(ctx context.Context, processID, id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.takeFailure(); err != nil {
		return err
	}
	target, ok := o.operations[id]
	if !ok || target.ProcessID != processID {
		return errors.NotFound("operation")
	}
	o.deleteOperationLocked(id)
	for opID, op := range o.operations {
		if op.ProcessID == processID && op.SequenceNumber > target.SequenceNumber {
			op.SequenceNumber--
			o.operations[opID] = op
		}
	}
	return nil
}

func (o operationStore) ReplaceAll(ctx context.Context, processID uuid.UUID, operations []models.Operation) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.takeFailure(); err != nil {
		return err
	}
	if err := o.checkCodesLocked(operations); err != nil {
		return err
	}
	for opID, op := range o.operations {
		if op.ProcessID == processID {
			o.deleteOperationLocked(opID)
		}
	}
	o.insertOperationsLocked(processID, operations)
	return nil
}

func (o operationStore) LastSequence(ctx context.Context, processID uuid.UUID) (int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	last := -1
	for _, op := range o.operations {
		if op.ProcessID == processID && op.SequenceNumber > last {
			last = op.SequenceNumber
		}
	}
	return last, nil
}

// Sessions, timings and reports

type historyStore struct{ *Store }

func (h historyStore) CreateSession(ctx context.Context, session *models.TimingSession) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.takeFailure(); err != nil {
		return err
	}
	process, ok := h.processes[session.ProcessID]
	if !ok {
		return errors.NotFound("process")
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	session.Status = models.SessionStatusOpen
	h.sessions[session.ID] = *session

	started := session.StartedAt
	process.TrackingCount++
	process.LastTrackedAt = &started
	h.processes[process.ID] = process
	return nil
}

func (h historyStore) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.TimingSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	session, ok := h.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, errors.NotFound("time study session")
	}
	return &session, nil
}

func (h historyStore) MarkCompleted(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.takeFailure(); err != nil {
		return err
	}
	session, ok := h.sessions[sessionID]
	if ok && session.Status == models.SessionStatusOpen {
		session.Status = models.SessionStatusCompleted
		session.CompletedAt = &at
		h.sessions[sessionID] = session
	}
	return nil
}

func (h historyStore) MarkAbandoned(ctx context.Context, cutoff, at time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.takeFailure(); err != nil {
		return 0, err
	}
	var n int64
	for id, session := range h.sessions {
		if session.Status == models.SessionStatusOpen && session.StartedAt.Before(cutoff) {
			session.Status = models.SessionStatusAbandoned
			session.CompletedAt = &at
			h.sessions[id] = session
			n++
		}
	}
	return n, nil
}

func (h historyStore) Create(ctx context.Context, timing *models.OperationTiming) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.takeFailure(); err != nil {
		return err
	}
	for _, existing := range h.timings {
		if existing.SessionID == timing.SessionID && existing.OperationID == timing.OperationID && existing.IsOpen() {
			return conflict("open operation timing")
		}
	}
	if timing.ID == uuid.Nil {
		timing.ID = uuid.New()
	}
	h.timings[timing.ID] = *timing
	return nil
}

func (h historyStore) FindOpen(ctx context.Context, sessionID, operationID uuid.UUID) (*models.OperationTiming, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var found *models.OperationTiming
	for _, timing := range h.timings {
		if timing.SessionID != sessionID || timing.OperationID != operationID || !timing.IsOpen() {
			continue
		}
		if found == nil || timing.StartTime.After(found.StartTime) {
			t := timing
			found = &t
		}
	}
	if found == nil {
		return nil, errors.NotFound("open operation timing")
	}
	return found, nil
}

func (h historyStore) FindLatestClosed(ctx context.Context, sessionID, excludeID uuid.UUID) (*models.OperationTiming, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var found *models.OperationTiming
	for _, timing := range h.timings {
		if timing.SessionID != sessionID || timing.ID == excludeID || timing.IsOpen() {
			continue
		}
		if found == nil || timing.EndTime.After(*found.EndTime) {
			t := timing
			found = &t
		}
	}
	if found == nil {
		return nil, errors.NotFound("previous operation timing")
	}
	return found, nil
}

func (h historyStore) Close(ctx context.Context, timingID uuid.UUID, endTime time.Time, totalSeconds *float64, gapSeconds *int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.takeFailure(); err != nil {
		return err
	}
	timing, ok := h.timings[timingID]
	if !ok || !timing.IsOpen() {
		return errors.NotFound("open operation timing")
	}
	timing.EndTime = &endTime
	timing.TotalTimeSeconds = totalSeconds
	timing.TimeBetweenOperationsSeconds = gapSeconds
	h.timings[timingID] = timing
	return nil
}

func (h historyStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.OperationTiming, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := []models.OperationTiming{}
	for _, timing := range h.timings {
		if timing.SessionID == sessionID {
			result = append(result, timing)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (h historyStore) QueryTimings(ctx context.Context, filter models.ReportFilter) ([]models.TimingRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	records := []models.TimingRecord{}
	for _, timing := range h.timings {
		session := h.sessions[timing.SessionID]
		user := h.users[session.UserID]
		if user.CompanyID != filter.CompanyID {
			continue
		}
		if session.StartedAt.Before(filter.From) || session.StartedAt.After(filter.To) {
			continue
		}
		if filter.ProcessID != nil && session.ProcessID != *filter.ProcessID {
			continue
		}
		op := h.operations[timing.OperationID]
		process := h.processes[session.ProcessID]
		records = append(records, models.TimingRecord{
			TimingID:                     timing.ID,
			SessionID:                    session.ID,
			SessionStartedAt:             session.StartedAt,
			SessionStatus:                session.Status,
			ProcessID:                    process.ID,
			ProcessName:                  process.Name,
			OperatorName:                 user.Name,
			OperatorBadgeID:              user.BadgeID,
			OperationID:                  op.ID,
			OperationCode:                op.Code,
			OperationDescription:         op.Description,
			StandardTimeSeconds:          op.StandardTimeSeconds,
			ToolsRequired:                op.ToolsRequired,
			QualityCheck:                 op.QualityCheck,
			StartTime:                    timing.StartTime,
			EndTime:                      timing.EndTime,
			TotalTimeSeconds:             timing.TotalTimeSeconds,
			TimeBetweenOperationsSeconds: timing.TimeBetweenOperationsSeconds,
		})
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.SessionStartedAt.Equal(b.SessionStartedAt) {
			return a.SessionStartedAt.After(b.SessionStartedAt)
		}
		if a.SessionID != b.SessionID {
			return a.SessionID.String() < b.SessionID.String()
		}
		return a.StartTime.Before(b.StartTime)
	})
	return records, nil
}
