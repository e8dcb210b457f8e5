package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

const collectionPatientProfiles = "patient_profiles"

type PatientRepository struct {
	col *mongo.Collection
}

var _ ports.PatientRepository = (*PatientRepository)(nil)

func NewPatientRepository(db *mongo.Database) *PatientRepository {
	return &PatientRepository{col: db.Collection(collectionPatientProfiles)}
}

// Create inserts a new patient profile document.
func (r *PatientRepository) Create(ctx context.Context, p *domain.PatientProfile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert patient profile: %w", err)
	}
	return nil
}

// FindByUserID retrieves the profile owned by userID, deleted or not.
func (r *PatientRepository) FindByUserID(ctx context.Context, userID string) (*domain.PatientProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.PatientProfile
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPatientProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) SoftDeleteByUserID(ctx context.Context, userID, deletedBy string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
		"$set": bson.M{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": deletedBy,
			"updated_at": now,
		},
	})
	if err != nil {
		return false, fmt.Errorf("soft delete patient profile: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *PatientRepository) RestoreByUserID(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
		"$set":   bson.M{"is_deleted": false, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"deleted_at": "", "deleted_by": ""},
	})
	if err != nil {
		return false, fmt.Errorf("restore patient profile: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// EnsureIndexes creates necessary indexes on the patient_profiles collection.
func (r *PatientRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "patient_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
