// Package mockdata populates a store with plausible demo content for
// local development: an admin account, registered users, labels and a
// batch of hearings with sections, comments, votes and follows.
package mockdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/civicvoice/hearing-go/internal/datastore"
	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
	"github.com/civicvoice/hearing-go/internal/logging"
)

const (
	numUsers    = 25
	numLabels   = 5
	numHearings = 10

	// AdminUsername and AdminPassword are the well-known local
	// development credentials.
	AdminUsername = "admin"
	AdminPassword = "admin"
)

// Generator seeds a store with demo content. The faker is seeded so
// repeated runs against a nuked database produce the same content.
type Generator struct {
	ds    datastore.Interface
	log   *slog.Logger
	faker *gofakeit.Faker
}

// New creates a generator over the given store.
func New(ds datastore.Interface, seed int64) *Generator {
	return &Generator{
		ds:    ds,
		log:   logging.ForService("mockdata"),
		faker: gofakeit.New(seed),
	}
}

// Generate populates the store. It assumes an empty database; run it
// after a nuke, not over existing content.
func (g *Generator) Generate(ctx context.Context) error {
	users, err := g.createUsers(ctx)
	if err != nil {
		return err
	}
	labels, err := g.createLabels(ctx)
	if err != nil {
		return err
	}
	for i := 0; i < numHearings; i++ {
		if err := g.createHearing(ctx, users, labels); err != nil {
			return err
		}
	}
	g.log.Info("mock data generated",
		"users", len(users), "labels", len(labels), "hearings", numHearings)
	return nil
}

func (g *Generator) createUsers(ctx context.Context) ([]*entities.User, error) {
	admin, err := g.newUser(AdminUsername, AdminPassword, true)
	if err != nil {
		return nil, err
	}
	if err := g.ds.CreateUser(ctx, admin); err != nil {
		return nil, err
	}

	users := make([]*entities.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		// Suffix with the index so faker collisions cannot trip the
		// unique username constraint.
		username := fmt.Sprintf("%s%d", strings.ToLower(g.faker.Username()), i)
		user, err := g.newUser(username, g.faker.Password(true, true, true, false, false, 12), false)
		if err != nil {
			return nil, err
		}
		user.Email = g.faker.Email()
		if err := g.ds.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (g *Generator) newUser(username, password string, admin bool) (*entities.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryGeneric).
			Component("mockdata").
			Build()
	}
	return &entities.User{
		Username:     username,
		PasswordHash: string(hash),
		IsAdmin:      admin,
		APIToken:     strings.ReplaceAll(uuid.NewString(), "-", ""),
	}, nil
}

func (g *Generator) createLabels(ctx context.Context) ([]*entities.Label, error) {
	labels := make([]*entities.Label, 0, numLabels)
	for i := 0; i < numLabels; i++ {
		label := &entities.Label{
			ModifiableBase: entities.ModifiableBase{Published: true},
			Label:          g.faker.BuzzWord(),
		}
		if err := g.ds.CreateLabel(ctx, label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}

func (g *Generator) createHearing(ctx context.Context, users []*entities.User, labels []*entities.Label) error {
	title := g.faker.Sentence(g.faker.Number(3, 7))
	title = strings.TrimSuffix(title, ".")
	slug := Slugify(title)
	if _, err := g.ds.GetHearing(ctx, slug); err == nil {
		slug = fmt.Sprintf("%s-%d", slug, g.faker.Number(10, 99))
	}
	openAt := time.Now().UTC().AddDate(0, 0, -g.faker.Number(0, 60))
	closeAt := openAt.AddDate(0, 0, g.faker.Number(14, 120))

	hearing := &entities.Hearing{
		ModifiableBase: entities.ModifiableBase{
			ID:        slug,
			Published: true,
		},
		Commentable: entities.Commentable{Commenting: entities.CommentingOpen},
		OpenAt:      openAt,
		CloseAt:     closeAt,
		Title:       title,
		Abstract:    fmt.Sprintf("<p>%s</p>", g.faker.Paragraph(1, 3, 12, " ")),
		Borough:     g.faker.City(),
	}
	if g.faker.Bool() {
		lat := g.faker.Float64Range(60.1, 60.3)
		lon := g.faker.Float64Range(24.8, 25.2)
		hearing.Latitude = &lat
		hearing.Longitude = &lon
		hearing.GeoJSON = []byte(fmt.Sprintf(
			`{"type":"Point","coordinates":[%f,%f]}`, lon, lat))
	}

	err := g.ds.Transaction(ctx, func(tx datastore.Interface) error {
		if err := tx.CreateHearing(ctx, hearing); err != nil {
			return err
		}

		picked := make([]*entities.Label, 0, 2)
		for _, label := range labels {
			if g.faker.Bool() && len(picked) < 2 {
				picked = append(picked, label)
			}
		}
		if err := tx.AddHearingLabels(ctx, hearing, picked); err != nil {
			return err
		}

		if g.faker.Bool() {
			image := &entities.HearingImage{
				ModifiableBase: entities.ModifiableBase{Published: true},
				HearingID:      hearing.ID,
				Image:          fmt.Sprintf("images/2024/01/%s.jpg", Slugify(g.faker.NounAbstract())),
				Title:          g.faker.Sentence(3),
				Width:          1200,
				Height:         800,
				Ordering:       1,
			}
			if err := tx.CreateHearingImage(ctx, image); err != nil {
				return err
			}
		}

		intro := &entities.Section{
			ModifiableBase: entities.ModifiableBase{Published: true},
			Commentable:    entities.Commentable{Commenting: entities.CommentingOpen},
			HearingID:      hearing.ID,
			Type:           entities.SectionTypeIntroduction,
			Abstract:       g.faker.Sentence(12),
			Content:        fmt.Sprintf("<p>%s</p>", g.faker.Paragraph(2, 4, 15, " ")),
		}
		if err := tx.CreateSection(ctx, intro); err != nil {
			return err
		}
		if err := g.createComments(ctx, tx, hearing.Parent(), users); err != nil {
			return err
		}

		for i := 0; i < g.faker.Number(1, 4); i++ {
			section := &entities.Section{
				ModifiableBase: entities.ModifiableBase{Published: true},
				Commentable:    entities.Commentable{Commenting: entities.CommentingOpen},
				HearingID:      hearing.ID,
				Type:           entities.SectionTypePlain,
				Title:          strings.TrimSuffix(g.faker.Sentence(4), "."),
				Abstract:       g.faker.Sentence(10),
				Content:        fmt.Sprintf("<p>%s</p>", g.faker.Paragraph(2, 4, 15, " ")),
			}
			if err := tx.CreateSection(ctx, section); err != nil {
				return err
			}
			if g.faker.Number(0, 2) == 0 {
				image := &entities.SectionImage{
					ModifiableBase: entities.ModifiableBase{Published: true},
					SectionID:      section.ID,
					Image:          fmt.Sprintf("images/2024/01/%s.jpg", Slugify(g.faker.NounAbstract())),
					Caption:        g.faker.Sentence(6),
					Width:          800,
					Height:         600,
					Ordering:       1,
				}
				if err := tx.CreateSectionImage(ctx, image); err != nil {
					return err
				}
			}
			if err := g.createComments(ctx, tx, section.Parent(), users); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Votes and follows run outside the hearing transaction, as they
	// would in production.
	for _, user := range users {
		if g.faker.Number(0, 3) == 0 {
			if _, err := g.ds.Follow(ctx, hearing.ID, user.ID); err != nil {
				return err
			}
		}
	}
	comments, err := g.ds.ListComments(ctx, hearing.Parent())
	if err != nil {
		return err
	}
	for _, comment := range comments {
		for _, user := range users {
			if g.faker.Number(0, 4) == 0 {
				if _, err := g.ds.Vote(ctx, comment.ID, user.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (g *Generator) createComments(ctx context.Context, tx datastore.Interface, parent entities.CommentParent, users []*entities.User) error {
	for i := 0; i < g.faker.Number(0, 6); i++ {
		comment := &entities.Comment{
			ModifiableBase: entities.ModifiableBase{Published: true},
			Content:        g.faker.Sentence(g.faker.Number(5, 25)),
		}
		comment.SetParent(parent)
		if g.faker.Bool() {
			user := users[g.faker.Number(0, len(users)-1)]
			comment.CreatedByID = &user.ID
		} else {
			comment.AuthorName = g.faker.FirstName()
		}
		if err := tx.CreateComment(ctx, comment); err != nil {
			return err
		}
	}
	return nil
}

// Slugify turns a title into a url-safe lowercase ascii identifier:
// diacritics stripped via unicode decomposition, runs of other
// non-alphanumerics collapsed to single hyphens.
func Slugify(s string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
