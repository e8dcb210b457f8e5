package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository. Every write other than
// Create is a compare-and-set on the version field.
type UserRepository struct {
	col *mongo.Collection
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	Status       string             `bson:"status"`
	IsActive     bool               `bson:"is_active"`
	Version      int64              `bson:"version"`

	FirstName        string                   `bson:"first_name"`
	LastName         string                   `bson:"last_name"`
	Phone            string                   `bson:"phone,omitempty"`
	DateOfBirth      *time.Time               `bson:"date_of_birth,omitempty"`
	Gender           string                   `bson:"gender,omitempty"`
	Address          *domain.Address          `bson:"address,omitempty"`
	ProfilePicture   string                   `bson:"profile_picture,omitempty"`
	EmergencyContact *domain.EmergencyContact `bson:"emergency_contact,omitempty"`

	LicenseNumber  string `bson:"license_number,omitempty"`
	Department     string `bson:"department,omitempty"`
	Specialization string `bson:"specialization,omitempty"`

	IsEmailVerified       bool       `bson:"is_email_verified"`
	VerificationTokenHash string     `bson:"verification_token_hash,omitempty"`
	VerificationExpires   *time.Time `bson:"verification_expires,omitempty"`

	ResetTokenHash    string     `bson:"reset_token_hash,omitempty"`
	ResetTokenExpires *time.Time `bson:"reset_token_expires,omitempty"`
	LoginAttempts     int        `bson:"login_attempts"`
	LockUntil         *time.Time `bson:"lock_until,omitempty"`
	LastLoginAt       *time.Time `bson:"last_login_at,omitempty"`

	IsDeleted    bool       `bson:"is_deleted"`
	DeletedAt    *time.Time `bson:"deleted_at,omitempty"`
	DeletedBy    string     `bson:"deleted_by,omitempty"`
	DeleteReason string     `bson:"delete_reason,omitempty"`

	CreatedBy      string    `bson:"created_by,omitempty"`
	LastModifiedBy string    `bson:"last_modified_by,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toUserDocument(u *domain.User) userDocument {
	return userDocument{
		Email:                 u.Email,
		PasswordHash:          u.PasswordHash,
		Role:                  string(u.Role),
		Status:                string(u.Status),
		IsActive:              u.IsActive,
		Version:               u.Version,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		Phone:                 u.Phone,
		DateOfBirth:           u.DateOfBirth,
		Gender:                u.Gender,
		Address:               u.Address,
		ProfilePicture:        u.ProfilePicture,
		EmergencyContact:      u.EmergencyContact,
		LicenseNumber:         u.LicenseNumber,
		Department:            u.Department,
		Specialization:        u.Specialization,
		IsEmailVerified:       u.IsEmailVerified,
		VerificationTokenHash: u.VerificationTokenHash,
		VerificationExpires:   u.VerificationExpires,
		ResetTokenHash:        u.ResetTokenHash,
		ResetTokenExpires:     u.ResetTokenExpires,
		LoginAttempts:         u.LoginAttempts,
		LockUntil:             u.LockUntil,
		LastLoginAt:           u.LastLoginAt,
		IsDeleted:             u.IsDeleted,
		DeletedAt:             u.DeletedAt,
		DeletedBy:             u.DeletedBy,
		DeleteReason:          u.DeleteReason,
		CreatedBy:             u.CreatedBy,
		LastModifiedBy:        u.LastModifiedBy,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:                    d.ID.Hex(),
		Email:                 d.Email,
		PasswordHash:          d.PasswordHash,
		Role:                  domain.Role(d.Role),
		Status:                domain.UserStatus(d.Status),
		IsActive:              d.IsActive,
		Version:               d.Version,
		FirstName:             d.FirstName,
		LastName:              d.LastName,
		Phone:                 d.Phone,
		DateOfBirth:           d.DateOfBirth,
		Gender:                d.Gender,
		Address:               d.Address,
		ProfilePicture:        d.ProfilePicture,
		EmergencyContact:      d.EmergencyContact,
		LicenseNumber:         d.LicenseNumber,
		Department:            d.Department,
		Specialization:        d.Specialization,
		IsEmailVerified:       d.IsEmailVerified,
		VerificationTokenHash: d.VerificationTokenHash,
		VerificationExpires:   d.VerificationExpires,
		ResetTokenHash:        d.ResetTokenHash,
		ResetTokenExpires:     d.ResetTokenExpires,
		LoginAttempts:         d.LoginAttempts,
		LockUntil:             d.LockUntil,
		LastLoginAt:           d.LastLoginAt,
		IsDeleted:             d.IsDeleted,
		DeletedAt:             d.DeletedAt,
		DeletedBy:             d.DeletedBy,
		DeleteReason:          d.DeleteReason,
		CreatedBy:             d.CreatedBy,
		LastModifiedBy:        d.LastModifiedBy,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

// Create inserts a new user document and assigns its ID and initial version.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toUserDocument(u)
	doc.Version = 1
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid.Hex()
	}
	u.Version = 1
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail matches soft-deleted users too; email uniqueness spans them.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByVerificationToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	if tokenHash == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"verification_token_hash": tokenHash})
}

func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	if tokenHash == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"reset_token_hash": tokenHash})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// Update replaces every mutable field of u when the stored version matches.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	set, unset, err := toUpdateDocuments(toUserDocument(u))
	if err != nil {
		return err
	}
	updated, err := r.compareAndSet(ctx, u.ID, u.Version, set, unset)
	if err != nil {
		return err
	}
	u.Version = updated.Version
	return nil
}

func (r *UserRepository) SetStatus(ctx context.Context, id string, version int64, status domain.UserStatus, modifiedBy string) (*domain.User, error) {
	return r.compareAndSet(ctx, id, version, bson.M{
		"status":           string(status),
		"is_active":        status == domain.StatusActive,
		"last_modified_by": modifiedBy,
		"updated_at":       time.Now().UTC(),
	}, bson.M{})
}

func (r *UserRepository) SoftDelete(ctx context.Context, id string, version int64, deletedBy, reason string) (*domain.User, error) {
	now := time.Now().UTC()
	return r.compareAndSet(ctx, id, version, bson.M{
		"is_deleted":       true,
		"deleted_at":       now,
		"deleted_by":       deletedBy,
		"delete_reason":    reason,
		"last_modified_by": deletedBy,
		"updated_at":       now,
	}, bson.M{})
}

// Restore clears the deletion markers and always returns the user to ACTIVE.
func (r *UserRepository) Restore(ctx context.Context, id string, version int64, restoredBy string) (*domain.User, error) {
	return r.compareAndSet(ctx, id, version, bson.M{
		"is_deleted":       false,
		"status":           string(domain.StatusActive),
		"is_active":        true,
		"last_modified_by": restoredBy,
		"updated_at":       time.Now().UTC(),
	}, bson.M{
		"deleted_at":    "",
		"deleted_by":    "",
		"delete_reason": "",
	})
}

// compareAndSet applies set/unset to the document matching id and version,
// bumping the version. A miss on an existing id is a concurrent modification.
func (r *UserRepository) compareAndSet(ctx context.Context, id string, version int64, set, unset bson.M) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid, "version": version}, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, domain.ErrEmailExists
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update user: %w", err)
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrUserNotFound
	}
	return nil, domain.ErrConcurrentModification
}

// optionalUserFields are the omitempty fields; a cleared value must be unset
// rather than skipped.
var optionalUserFields = []string{
	"phone", "date_of_birth", "gender", "address", "profile_picture", "emergency_contact",
	"license_number", "department", "specialization",
	"verification_token_hash", "verification_expires", "reset_token_hash", "reset_token_expires",
	"lock_until", "last_login_at", "deleted_at", "deleted_by", "delete_reason",
	"created_by", "last_modified_by",
}

// toUpdateDocuments splits doc into $set and $unset payloads, leaving out the
// immutable fields.
func toUpdateDocuments(doc userDocument) (set, unset bson.M, err error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("encode user: %w", err)
	}
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, nil, fmt.Errorf("encode user: %w", err)
	}
	delete(set, "_id")
	delete(set, "version")
	delete(set, "created_at")

	unset = bson.M{}
	for _, field := range optionalUserFields {
		if _, ok := set[field]; !ok {
			unset[field] = ""
		}
	}
	return set, unset, nil
}

func (r *UserRepository) List(ctx context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := buildUserFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	dir := int(f.SortDir)
	if dir == 0 {
		dir = int(ports.SortDesc)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortBy, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}
	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, total, nil
}

func (r *UserRepository) Count(ctx context.Context, f ports.UserFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, buildUserFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func buildUserFilter(f ports.UserFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Role != "" {
		filter["role"] = string(f.Role)
	}
	if f.IsDeleted != nil {
		filter["is_deleted"] = *f.IsDeleted
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"first_name": re},
			bson.M{"last_name": re},
			bson.M{"email": re},
		}
	}
	return filter
}

// EnsureIndexes creates necessary indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "is_deleted", Value: 1}, {Key: "role", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "verification_token_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "reset_token_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
