package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lmoreau/profilhub/internal/domain/user"
	"github.com/lmoreau/profilhub/internal/observability"
)

const usersCollection = "users"

// userDoc is the persisted shape; the driver's ObjectID stays inside this
// package and is exposed outward as its hex form.
type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	LastName     string        `bson:"last_name"`
	FirstName    string        `bson:"first_name"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	Address      string        `bson:"address"`
	BirthDate    time.Time     `bson:"birth_date"`
	PhoneNumber  string        `bson:"phone_number"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

func (d userDoc) toDomain() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		LastName:     d.LastName,
		FirstName:    d.FirstName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Address:      d.Address,
		BirthDate:    d.BirthDate,
		PhoneNumber:  d.PhoneNumber,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type UsersRepo struct {
	db   *mongo.Database
	prom *observability.Prom
}

// NewUsersRepo wires the repository and ensures the unique email index, which
// is what actually enforces one account per email under concurrent signups.
func NewUsersRepo(ctx context.Context, db *mongo.Database, prom *observability.Prom) (*UsersRepo, error) {
	collection := db.Collection(usersCollection)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	if err != nil {
		return nil, err
	}

	return &UsersRepo{db: db, prom: prom}, nil
}

func (r *UsersRepo) collection() *mongo.Collection {
	return r.db.Collection(usersCollection)
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(op, fn)
	}

	return fn()
}

func (r *UsersRepo) Create(ctx context.Context, params user.NewUserParams) (user.User, error) {
	now := time.Now().UTC()

	doc := userDoc{
		LastName:     params.LastName,
		FirstName:    params.FirstName,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Address:      params.Address,
		BirthDate:    params.BirthDate,
		PhoneNumber:  params.PhoneNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.observe("create", func() error {
		result, err := r.collection().InsertOne(ctx, doc)

		if err != nil {
			return err
		}

		objectID, ok := result.InsertedID.(bson.ObjectID)

		if !ok {
			return errors.New("inserted id is not an object id")
		}

		doc.ID = objectID
		return nil
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return doc.toDomain(), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var doc userDoc

	err := r.observe("get_by_email", func() error {
		return r.collection().FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return doc.toDomain(), nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)

	if err != nil {
		// a malformed id cannot match any stored document
		return user.User{}, user.ErrNotFound
	}

	var doc userDoc

	err = r.observe("get_by_id", func() error {
		return r.collection().FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return doc.toDomain(), nil
}

// Update applies the non-nil fields of params and returns the document as it
// stands after the write. Email and password hash are not updatable here.
func (r *UsersRepo) Update(ctx context.Context, id string, params user.UpdateParams) (user.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)

	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	set := bson.M{}

	if params.LastName != nil {
		set["last_name"] = *params.LastName
	}
	if params.FirstName != nil {
		set["first_name"] = *params.FirstName
	}
	if params.Address != nil {
		set["address"] = *params.Address
	}
	if params.BirthDate != nil {
		set["birth_date"] = *params.BirthDate
	}
	if params.PhoneNumber != nil {
		set["phone_number"] = *params.PhoneNumber
	}

	if len(set) == 0 {
		// nothing to write; behave like a read
		return r.GetByID(ctx, id)
	}

	set["updated_at"] = time.Now().UTC()

	var doc userDoc

	err = r.observe("update", func() error {
		return r.collection().FindOneAndUpdate(
			ctx,
			bson.M{"_id": objectID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return doc.toDomain(), nil
}
