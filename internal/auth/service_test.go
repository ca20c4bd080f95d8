package auth_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/auth"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

type mockUserRepository struct {
	users map[string]struct {
		hash   string
		userID string
	}
	capabilities map[int64]*auth.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]struct {
			hash   string
			userID string
		}),
		capabilities: make(map[int64]*auth.User),
	}
}

func (m *mockUserRepository) addUser(email, password string, userID int64, caps ...string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	Expect(err).NotTo(HaveOccurred())
	m.users[email] = struct {
		hash   string
		userID string
	}{hash: string(hash), userID: "1"}
	m.capabilities[userID] = &auth.User{ID: userID, Email: email, Capabilities: caps}
}

func (m *mockUserRepository) GetPasswordForEmail(email string) (string, string, error) {
	u, ok := m.users[email]
	if !ok {
		return "", "", errors.New("no rows")
	}
	return u.hash, u.userID, nil
}

func (m *mockUserRepository) GetUserWithCapabilities(userID int64) (*auth.User, error) {
	u, ok := m.capabilities[userID]
	if !ok {
		return nil, errors.New("no rows")
	}
	return u, nil
}

var _ = Describe("AuthService", func() {
	var (
		repo    *mockUserRepository
		service *auth.Service
	)

	BeforeEach(func() {
		repo = newMockUserRepository()
		repo.addUser("hr@peoplehub.dev", "password", 1, auth.CapHRManage)

		tokenGen := auth.NewJWTTokenGenerator("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
		service = auth.NewService(repo, tokenGen)
	})

	Describe("Authenticate", func() {
		It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "hr@peoplehub.dev", Password: "password"})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "hr@peoplehub.dev", Password: "nope"})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("rejects an unknown email with the same error", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "ghost@peoplehub.dev", Password: "password"})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("rejects a malformed payload", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "", Password: "password"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("token validation", func() {
		It("validates an issued access token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "hr@peoplehub.dev", Password: "password"})
			Expect(err).NotTo(HaveOccurred())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Email).To(Equal("hr@peoplehub.dev"))
		})

		It("rejects garbage", func() {
			_, err := service.ValidateAccessToken("not-a-jwt")
			Expect(err).To(Equal(internal.ErrInvalidToken))
		})
	})

	Describe("RefreshTokens", func() {
		It("exchanges a refresh token for a new pair", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "hr@peoplehub.dev", Password: "password"})
			Expect(err).NotTo(HaveOccurred())

			fresh, err := service.RefreshTokens(tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh.AccessToken).NotTo(BeEmpty())
		})

		It("refuses an access token in place of a refresh token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "hr@peoplehub.dev", Password: "password"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(tokens.AccessToken)
			Expect(err).To(Equal(internal.ErrInvalidToken))
		})
	})
})

var _ = Describe("User", func() {
	It("exposes the capability list as a workflow actor", func() {
		u := &auth.User{ID: 1, EmployeeID: 20, Capabilities: []string{auth.CapHRManage}}
		actor := u.Actor()
		Expect(actor.UserID).To(Equal(int64(1)))
		Expect(actor.EmployeeID).To(Equal(int64(20)))
		Expect(actor.Has(auth.CapHRManage)).To(BeTrue())
		Expect(actor.Has(auth.CapFinanceManage)).To(BeFalse())
	})
})
