package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"livevote/contexts/elections/voting-engine/domain/entities"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"
	"livevote/contexts/elections/voting-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the tables owned by the voting engine.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&voterModel{}, &candidateModel{}, &outboxModel{}); err != nil {
		return r.logError("voting_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) RegisterVoter(ctx context.Context, voter entities.Voter) error {
	row := voterModelFromEntity(voter)
	if row.VoterID == "" {
		return domainerrors.ErrInvalidInput
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrDuplicateVoter
		}
		return r.logError("voting_repo_register_voter_failed", err, "voter_id", row.VoterID)
	}
	return nil
}

func (r *Repository) GetVoter(ctx context.Context, voterID string) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, r.logError("voting_repo_get_voter_failed", err, "voter_id", strings.TrimSpace(voterID))
	}
	return row.toEntity(), nil
}

// TryMarkVoted is a conditional update: only a row whose voted_for is still
// NULL matches, so concurrent transactions for the same voter serialize on the
// row lock and exactly one of them sees a changed row.
func (r *Repository) TryMarkVoted(ctx context.Context, voterID string, candidateID string, votedAt time.Time) error {
	return r.markVoted(r.db.WithContext(ctx), strings.TrimSpace(voterID), strings.TrimSpace(candidateID), votedAt)
}

// CommitVote runs the vote gate and the counter increment in one transaction,
// so a failure in either step leaves the voter unmarked.
func (r *Repository) CommitVote(ctx context.Context, voterID string, candidateID string, votedAt time.Time) (uint64, error) {
	voterID = strings.TrimSpace(voterID)
	candidateID = strings.TrimSpace(candidateID)

	var count uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.markVoted(tx, voterID, candidateID, votedAt); err != nil {
			return err
		}
		value, err := r.increment(tx, candidateID)
		if err != nil {
			return err
		}
		count = value
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return 0, err
		}
		return 0, r.logError("voting_repo_commit_vote_failed", err,
			"voter_id", voterID,
			"candidate_id", candidateID,
		)
	}
	return count, nil
}

func (r *Repository) markVoted(tx *gorm.DB, voterID string, candidateID string, votedAt time.Time) error {
	result := tx.Model(&voterModel{}).
		Where("voter_id = ?", voterID).
		Where("voted_for IS NULL").
		Updates(map[string]any{
			"voted_for": candidateID,
			"voted_at":  votedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("voting_repo_mark_voted_failed", result.Error,
			"voter_id", voterID,
			"candidate_id", candidateID,
		)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(&voterModel{}).
		Where("voter_id = ?", voterID).
		Count(&count).Error; err != nil {
		return r.logError("voting_repo_mark_voted_lookup_failed", err, "voter_id", voterID)
	}
	if count == 0 {
		return domainerrors.ErrVoterNotFound
	}
	return domainerrors.ErrAlreadyVoted
}

func (r *Repository) VoterStatistics(ctx context.Context) (entities.VoterStatistics, error) {
	var stats struct {
		Registered int64
		Voted      int64
	}
	err := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Select("COUNT(*) AS registered, COUNT(voted_for) AS voted").
		Scan(&stats).
		Error
	if err != nil {
		return entities.VoterStatistics{}, r.logError("voting_repo_voter_statistics_failed", err)
	}
	return entities.VoterStatistics{
		RegisteredVoters: int(stats.Registered),
		VotedVoters:      int(stats.Voted),
	}, nil
}

func (r *Repository) RegisterCandidate(ctx context.Context, candidate entities.Candidate) error {
	row := candidateModelFromEntity(candidate)
	if row.CandidateID == "" {
		return domainerrors.ErrInvalidInput
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrConflict
		}
		return r.logError("voting_repo_register_candidate_failed", err, "candidate_id", row.CandidateID)
	}
	return nil
}

func (r *Repository) GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error) {
	var row candidateModel
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", strings.TrimSpace(candidateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		return entities.Candidate{}, r.logError("voting_repo_get_candidate_failed", err,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCandidates(ctx context.Context, category string) ([]entities.Candidate, error) {
	tx := r.db.WithContext(ctx).Model(&candidateModel{})
	if category = strings.TrimSpace(category); category != "" {
		tx = tx.Where("LOWER(category) = LOWER(?)", category)
	}
	var rows []candidateModel
	if err := tx.Order("created_at ASC").Order("candidate_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_candidates_failed", err, "category", category)
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// Increment adds one in a single UPDATE so concurrent increments never read
// a stale counter, and returns the new value through RETURNING.
func (r *Repository) Increment(ctx context.Context, candidateID string) (uint64, error) {
	return r.increment(r.db.WithContext(ctx), strings.TrimSpace(candidateID))
}

func (r *Repository) increment(tx *gorm.DB, candidateID string) (uint64, error) {
	var row candidateModel
	result := tx.Model(&row).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "vote_count"}}}).
		Where("candidate_id = ?", candidateID).
		UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1))
	if result.Error != nil {
		return 0, r.logError("voting_repo_increment_failed", result.Error, "candidate_id", candidateID)
	}
	if result.RowsAffected == 0 {
		return 0, domainerrors.ErrCandidateNotFound
	}
	return uint64(row.VoteCount), nil
}

// Snapshot reads every counter in one statement, which Postgres serves from a
// single MVCC snapshot.
func (r *Repository) Snapshot(ctx context.Context) (entities.TallySnapshot, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("candidate_id ASC").
		Find(&rows).Error; err != nil {
		return entities.TallySnapshot{}, r.logError("voting_repo_snapshot_failed", err)
	}
	entries := make([]entities.TallyEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entities.TallyEntry{
			CandidateID: row.CandidateID,
			Name:        row.Name,
			Category:    row.Category,
			VoteCount:   uint64(row.VoteCount),
		})
	}
	return entities.TallySnapshot{
		TakenAt: time.Now().UTC(),
		Entries: entries,
	}, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	row := outboxModel{
		OutboxID:     outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    createdAt,
	}
	create := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if create.Error != nil {
		return r.logError("voting_repo_append_outbox_failed", create.Error, "outbox_id", outboxID)
	}
	if create.RowsAffected == 1 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Where("outbox_id = ?", outboxID).
		First(&existing).Error; err != nil {
		return r.logError("voting_repo_append_outbox_lookup_failed", err, "outbox_id", outboxID)
	}
	if !bytes.Equal(existing.Payload, payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Order("outbox_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_pending_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("voting_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

// logError records the failure and classifies it as an outage for callers.
func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "elections/voting-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("voting repository operation failed", fields...)
	return fmt.Errorf("%w: %v", domainerrors.ErrUnavailable, err)
}

type voterModel struct {
	VoterID      string     `gorm:"column:voter_id;primaryKey"`
	Name         string     `gorm:"column:name"`
	VotedFor     *string    `gorm:"column:voted_for;index"`
	RegisteredAt time.Time  `gorm:"column:registered_at"`
	VotedAt      *time.Time `gorm:"column:voted_at"`
}

func (voterModel) TableName() string {
	return "voters"
}

func voterModelFromEntity(voter entities.Voter) voterModel {
	row := voterModel{
		VoterID:      strings.TrimSpace(voter.VoterID),
		Name:         strings.TrimSpace(voter.Name),
		RegisteredAt: voter.RegisteredAt.UTC(),
		VotedAt:      normalizeOptionalTime(voter.VotedAt),
	}
	if voter.VotedFor != nil {
		votedFor := strings.TrimSpace(*voter.VotedFor)
		row.VotedFor = &votedFor
	}
	if row.RegisteredAt.IsZero() {
		row.RegisteredAt = time.Now().UTC()
	}
	return row
}

func (m voterModel) toEntity() entities.Voter {
	voter := entities.Voter{
		VoterID:      m.VoterID,
		Name:         m.Name,
		RegisteredAt: m.RegisteredAt.UTC(),
		VotedAt:      normalizeOptionalTime(m.VotedAt),
	}
	if m.VotedFor != nil {
		votedFor := strings.TrimSpace(*m.VotedFor)
		voter.VotedFor = &votedFor
	}
	return voter
}

type candidateModel struct {
	CandidateID string    `gorm:"column:candidate_id;primaryKey"`
	Name        string    `gorm:"column:name"`
	Category    string    `gorm:"column:category;index"`
	VoteCount   int64     `gorm:"column:vote_count;not null;default:0;check:vote_count >= 0"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	row := candidateModel{
		CandidateID: strings.TrimSpace(candidate.CandidateID),
		Name:        strings.TrimSpace(candidate.Name),
		Category:    strings.TrimSpace(candidate.Category),
		VoteCount:   int64(candidate.VoteCount),
		CreatedAt:   candidate.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID: m.CandidateID,
		Name:        m.Name,
		Category:    m.Category,
		VoteCount:   uint64(m.VoteCount),
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "voting_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrNotFound) ||
		errors.Is(err, domainerrors.ErrAlreadyVoted) ||
		errors.Is(err, domainerrors.ErrUnavailable)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.VoterRegistry = (*Repository)(nil)
var _ ports.CandidateTally = (*Repository)(nil)
var _ ports.VoteCommitter = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
