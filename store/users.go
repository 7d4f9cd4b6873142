package store

import (
	"context"
	"strings"
	"time"

	"cropadvisor/models"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserStore reads and writes the users collection.
type UserStore struct {
	coll *mongo.Collection
}

// ProfileUpdate carries the optional fields of a profile edit.
type ProfileUpdate struct {
	Name     *string
	Phone    *string
	Location *models.Location
}

// UserQuery filters the admin user listing.
type UserQuery struct {
	Search string
	Page   Page
}

// Create inserts u and sets its ID. Email is lower-cased before insert.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := s.coll.InsertOne(ctx, u)
	if err != nil {
		return mapErr(err, "insert user")
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ByEmail finds a user by email, case-insensitively.
func (s *UserStore) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.coll.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
	if err != nil {
		return nil, mapErr(err, "find user by email")
	}
	return &u, nil
}

func (s *UserStore) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapErr(err, "find user")
	}
	return &u, nil
}

// PhoneTaken reports whether another account already uses phone.
func (s *UserStore) PhoneTaken(ctx context.Context, phone string, except primitive.ObjectID) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"phone": phone, "_id": bson.M{"$ne": except}})
	if err != nil {
		return false, mapErr(err, "count phone")
	}
	return n > 0, nil
}

// UpdateProfile applies the non-nil fields of p and returns the updated user.
func (s *UserStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		set["phone"] = strings.TrimSpace(*p.Phone)
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	return s.findAndSet(ctx, id, set)
}

// SetActive enables or disables an account.
func (s *UserStore) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error) {
	return s.findAndSet(ctx, id, bson.M{"isActive": active, "updatedAt": time.Now().UTC()})
}

func (s *UserStore) findAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if err != nil {
		return nil, mapErr(err, "update user")
	}
	return &u, nil
}

// TouchLogin records a successful login.
func (s *UserStore) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastLogin": at}})
	return mapErr(err, "touch login")
}

// List returns one page of users, newest first, and the total match count.
func (s *UserStore) List(ctx context.Context, q UserQuery) ([]models.User, int64, error) {
	filter := userSearchFilter(q.Search)
	page := q.Page.Normalize()

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapErr(err, "count users")
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, mapErr(err, "list users")
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, eris.Wrap(err, "store: decode users")
	}
	return users, total, nil
}

// Delete removes a user document.
func (s *UserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err, "delete user")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Counts returns the total and active user counts.
func (s *UserStore) Counts(ctx context.Context) (total, active int64, err error) {
	if total, err = s.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return 0, 0, mapErr(err, "count users")
	}
	if active, err = s.coll.CountDocuments(ctx, bson.M{"isActive": true}); err != nil {
		return 0, 0, mapErr(err, "count active users")
	}
	return total, active, nil
}

// RegistrationsByMonth counts sign-ups per calendar month since the given time.
func (s *UserStore) RegistrationsByMonth(ctx context.Context, since time.Time) ([]MonthlyCount, error) {
	return aggregateAll[MonthlyCount](ctx, s.coll, monthlyPipeline(bson.M{}, since))
}
