package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/waypointhq/waypoint/server/internal/model"
	"github.com/waypointhq/waypoint/server/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity. Schema is managed by migrations, not by this adapter.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Conversations() store.Conversations { return &conversations{db: s.db} }
func (s *pgStore) Messages() store.Messages           { return &messages{db: s.db} }
func (s *pgStore) ToolCalls() store.ToolCalls         { return &toolCalls{db: s.db} }
func (s *pgStore) Providers() store.Providers         { return &providers{db: s.db} }
func (s *pgStore) Examples() store.Examples           { return &examples{db: s.db} }

// HealthPing implements health.Pinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Conversations ---

type conversations struct{ db *sql.DB }

func (c *conversations) Create(ctx context.Context, in *model.Conversation) (*model.Conversation, error) {
	id := in.ConversationID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO conversations (conversation_id, title)
        VALUES ($1,$2)
        RETURNING creation_time
    `, id, in.Title)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	return &model.Conversation{ConversationID: id, Title: in.Title, CreationTime: created}, nil
}

func (c *conversations) Get(ctx context.Context, conversationID string) (*model.Conversation, error) {
	out := model.Conversation{ConversationID: conversationID}
	row := c.db.QueryRowContext(ctx, `
        SELECT title, creation_time FROM conversations WHERE conversation_id=$1
    `, conversationID)
	if err := row.Scan(&out.Title, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (c *conversations) List(ctx context.Context) ([]*model.Conversation, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT conversation_id, title, creation_time FROM conversations ORDER BY creation_time DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Conversation
	for rows.Next() {
		var cv model.Conversation
		if err := rows.Scan(&cv.ConversationID, &cv.Title, &cv.CreationTime); err != nil {
			return nil, err
		}
		out = append(out, &cv)
	}
	return out, rows.Err()
}

func (c *conversations) Delete(ctx context.Context, conversationID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM conversations WHERE conversation_id=$1`, conversationID)
	return err
}

// --- Messages ---

type messages struct{ db *sql.DB }

func (m *messages) Append(ctx context.Context, in *model.Message) (*model.Message, error) {
	out := *in
	if out.MessageID == "" {
		out.MessageID = uuid.New().String()
	}
	if out.CreationTime.IsZero() {
		out.CreationTime = time.Now().UTC()
	}
	// seq is a bigserial; let the database assign it.
	row := m.db.QueryRowContext(ctx, `
        INSERT INTO messages (message_id, conversation_id, role, content, creation_time)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING seq
    `, out.MessageID, out.ConversationID, out.Role, out.Content, out.CreationTime)
	if err := row.Scan(&out.Seq); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *messages) List(ctx context.Context, conversationID string) ([]*model.Message, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT message_id, role, content, creation_time, seq FROM messages
        WHERE conversation_id=$1 ORDER BY creation_time ASC, seq ASC
    `, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Message
	for rows.Next() {
		msg := model.Message{ConversationID: conversationID}
		if err := rows.Scan(&msg.MessageID, &msg.Role, &msg.Content, &msg.CreationTime, &msg.Seq); err != nil {
			return nil, err
		}
		out = append(out, &msg)
	}
	return out, rows.Err()
}

// --- Tool calls ---

type toolCalls struct{ db *sql.DB }

func (t *toolCalls) RecordProviderSearch(ctx context.Context, conversationID string, payload json.RawMessage) (*model.ToolCallRecord, error) {
	return t.record(ctx, "provider_searches", model.ToolFindProviders, conversationID, payload)
}

func (t *toolCalls) RecordAddressSearch(ctx context.Context, conversationID string, payload json.RawMessage) (*model.ToolCallRecord, error) {
	return t.record(ctx, "address_searches", model.ToolSearchAddresses, conversationID, payload)
}

func (t *toolCalls) RecordProviderInfo(ctx context.Context, conversationID string, payload json.RawMessage) (*model.ToolCallRecord, error) {
	return t.record(ctx, "provider_info_lookups", model.ToolGetProviderInfo, conversationID, payload)
}

func (t *toolCalls) ListProviderSearches(ctx context.Context, conversationID string) ([]*model.ToolCallRecord, error) {
	return t.list(ctx, "provider_searches", model.ToolFindProviders, conversationID)
}

func (t *toolCalls) ListAddressSearches(ctx context.Context, conversationID string) ([]*model.ToolCallRecord, error) {
	return t.list(ctx, "address_searches", model.ToolSearchAddresses, conversationID)
}

func (t *toolCalls) ListProviderInfoLookups(ctx context.Context, conversationID string) ([]*model.ToolCallRecord, error) {
	return t.list(ctx, "provider_info_lookups", model.ToolGetProviderInfo, conversationID)
}

func (t *toolCalls) record(ctx context.Context, table string, kind model.ToolKind, conversationID string, payload json.RawMessage) (*model.ToolCallRecord, error) {
	rec := model.ToolCallRecord{
		RecordID:       uuid.New().String(),
		ConversationID: conversationID,
		Kind:           kind,
		Payload:        payload,
	}
	var body any
	if len(payload) > 0 {
		body = string(payload)
	}
	row := t.db.QueryRowContext(ctx, `
        INSERT INTO `+table+` (record_id, conversation_id, payload)
        VALUES ($1,$2,$3)
        RETURNING creation_time
    `, rec.RecordID, rec.ConversationID, body)
	if err := row.Scan(&rec.CreationTime); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *toolCalls) list(ctx context.Context, table string, kind model.ToolKind, conversationID string) ([]*model.ToolCallRecord, error) {
	rows, err := t.db.QueryContext(ctx, `
        SELECT record_id, payload, creation_time FROM `+table+`
        WHERE conversation_id=$1 ORDER BY creation_time ASC, record_id ASC
    `, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ToolCallRecord
	for rows.Next() {
		rec := model.ToolCallRecord{ConversationID: conversationID, Kind: kind}
		var payload sql.NullString
		if err := rows.Scan(&rec.RecordID, &payload, &rec.CreationTime); err != nil {
			return nil, err
		}
		if payload.Valid {
			rec.Payload = json.RawMessage(payload.String)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// --- Providers ---

type providers struct{ db *sql.DB }

func (p *providers) Create(ctx context.Context, in *model.Provider) (*model.Provider, error) {
	out := *in
	if out.ProviderID == "" {
		out.ProviderID = uuid.New().String()
	}
	eligJSON, _ := json.Marshal(out.EligibilityRequirements)
	contactsJSON, _ := json.Marshal(out.Contacts)
	var zone any
	if len(out.ServiceZone) > 0 {
		zone = string(out.ServiceZone)
	}
	row := p.db.QueryRowContext(ctx, `
        INSERT INTO providers (provider_id, name, provider_type, routing_type, eligibility,
            service_hours, service_zone, website, contacts)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING creation_time
    `, out.ProviderID, out.Name, out.Type, out.RoutingType, string(eligJSON),
		out.ServiceHours, zone, out.Website, string(contactsJSON))
	if err := row.Scan(&out.CreationTime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *providers) GetByID(ctx context.Context, providerID string) (*model.Provider, error) {
	out := model.Provider{ProviderID: providerID}
	var elig, zone, contacts sql.NullString
	row := p.db.QueryRowContext(ctx, `
        SELECT name, provider_type, routing_type, eligibility, service_hours, service_zone,
            website, contacts, creation_time
        FROM providers WHERE provider_id=$1
    `, providerID)
	if err := row.Scan(&out.Name, &out.Type, &out.RoutingType, &elig, &out.ServiceHours,
		&zone, &out.Website, &contacts, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	fillProviderJSON(&out, elig, zone, contacts)
	return &out, nil
}

func (p *providers) List(ctx context.Context) ([]*model.Provider, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT provider_id, name, provider_type, routing_type, eligibility, service_hours,
            service_zone, website, contacts, creation_time
        FROM providers ORDER BY name ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Provider
	for rows.Next() {
		var pr model.Provider
		var elig, zone, contacts sql.NullString
		if err := rows.Scan(&pr.ProviderID, &pr.Name, &pr.Type, &pr.RoutingType, &elig,
			&pr.ServiceHours, &zone, &pr.Website, &contacts, &pr.CreationTime); err != nil {
			return nil, err
		}
		fillProviderJSON(&pr, elig, zone, contacts)
		out = append(out, &pr)
	}
	return out, rows.Err()
}

func (p *providers) Delete(ctx context.Context, providerID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM providers WHERE provider_id=$1`, providerID)
	return err
}

func fillProviderJSON(p *model.Provider, elig, zone, contacts sql.NullString) {
	if elig.Valid && elig.String != "" {
		_ = json.Unmarshal([]byte(elig.String), &p.EligibilityRequirements)
	}
	if zone.Valid && zone.String != "" {
		p.ServiceZone = json.RawMessage(zone.String)
	}
	if contacts.Valid && contacts.String != "" {
		_ = json.Unmarshal([]byte(contacts.String), &p.Contacts)
	}
}

// --- Examples ---

type examples struct{ db *sql.DB }

func (e *examples) Create(ctx context.Context, in *model.Example) (*model.Example, error) {
	out := *in
	if out.ExampleID == "" {
		out.ExampleID = uuid.New().String()
	}
	statesJSON, err := json.Marshal(out.States)
	if err != nil {
		return nil, err
	}
	cfgJSON, err := json.Marshal(out.Config)
	if err != nil {
		return nil, err
	}
	row := e.db.QueryRowContext(ctx, `
        INSERT INTO examples (example_id, conversation_id, title, description, category,
            states, replay_config)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING creation_time
    `, out.ExampleID, out.ConversationID, out.Title, out.Description, out.Category,
		string(statesJSON), string(cfgJSON))
	if err := row.Scan(&out.CreationTime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *examples) GetByID(ctx context.Context, exampleID string) (*model.Example, error) {
	out := model.Example{ExampleID: exampleID}
	var states, cfg string
	row := e.db.QueryRowContext(ctx, `
        SELECT conversation_id, title, description, category, states, replay_config, creation_time
        FROM examples WHERE example_id=$1
    `, exampleID)
	if err := row.Scan(&out.ConversationID, &out.Title, &out.Description, &out.Category,
		&states, &cfg, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(states), &out.States); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cfg), &out.Config); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *examples) List(ctx context.Context) ([]*model.Example, error) {
	rows, err := e.db.QueryContext(ctx, `
        SELECT example_id, conversation_id, title, description, category, states, replay_config, creation_time
        FROM examples ORDER BY creation_time DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Example
	for rows.Next() {
		var ex model.Example
		var states, cfg string
		if err := rows.Scan(&ex.ExampleID, &ex.ConversationID, &ex.Title, &ex.Description,
			&ex.Category, &states, &cfg, &ex.CreationTime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(states), &ex.States); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cfg), &ex.Config); err != nil {
			return nil, err
		}
		out = append(out, &ex)
	}
	return out, rows.Err()
}

func (e *examples) Delete(ctx context.Context, exampleID string) error {
	_, err := e.db.ExecContext(ctx, `DELETE FROM examples WHERE example_id=$1`, exampleID)
	return err
}
