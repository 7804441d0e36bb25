package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const (
	tokenTTL         = 7 * 24 * time.Hour
	tokenIssuer      = "luxfield"
	secretSetting    = "jwt_secret"
	secretLen        = 32
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

// bcryptCost is lowered by tests
var bcryptCost = 12

var (
	errBadCredentials = errors.New("invalid username or password")
	errUsernameTaken  = errors.New("username already taken")
	errLoginLimited   = errors.New("too many login attempts, try again later")
	errInvalidToken   = errors.New("invalid token")
	errAccountStore   = errors.New("account store unavailable")
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Identity is an authenticated pilot. PlayerID is the key match results are
// recorded against.
type Identity struct {
	PlayerID int64
	Username string
	Token    string
}

type pilotClaims struct {
	PlayerID int64  `json:"pid"`
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// Auth issues and checks pilot tokens
type Auth struct {
	db     *DB
	secret []byte
	now    func() time.Time

	rateMu   sync.Mutex
	limiters map[string]*rate.Limiter // per login IP
}

// NewAuth loads the signing secret from db, creating it on first start
func NewAuth(db *DB) (*Auth, error) {
	secret, err := loadOrCreateSecret(db)
	if err != nil {
		return nil, err
	}
	return &Auth{
		db:       db,
		secret:   secret,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

func loadOrCreateSecret(db *DB) ([]byte, error) {
	if h := db.GetSetting(secretSetting); h != "" {
		if b, err := hex.DecodeString(h); err == nil && len(b) == secretLen {
			return b, nil
		}
		log.Printf("auth: stored secret unusable, rotating")
	}
	secret := make([]byte, secretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("auth: secret: %w", err)
	}
	if err := db.SetSetting(secretSetting, hex.EncodeToString(secret)); err != nil {
		// Tokens stay valid until restart.
		log.Printf("auth: could not persist secret: %v", err)
	}
	return secret, nil
}

// checkCredentials returns the canonical username or a user-facing error
func checkCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if !usernameRe.MatchString(username) {
		return "", errors.New("username may only use letters, digits, '_', '-' and '.'")
	}
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	return username, nil
}

// Register creates a pilot account and signs its first token
func (a *Auth) Register(username, password string) (Identity, error) {
	username, err := checkCredentials(username, password)
	if err != nil {
		return Identity{}, err
	}
	exists, err := a.db.UsernameExists(username)
	if err != nil {
		log.Printf("auth: register %q: %v", username, err)
		return Identity{}, errAccountStore
	}
	if exists {
		return Identity{}, errUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		log.Printf("auth: hash: %v", err)
		return Identity{}, errAccountStore
	}
	id, err := a.db.CreatePlayer(username, string(hash))
	if err != nil {
		log.Printf("auth: create %q: %v", username, err)
		return Identity{}, errAccountStore
	}
	return a.issue(id, username)
}

// Login checks a password and signs a fresh token. Attempts are limited per IP.
func (a *Auth) Login(username, password, ip string) (Identity, error) {
	if !a.allowLogin(ip) {
		return Identity{}, errLoginLimited
	}
	player, err := a.db.GetPlayerByUsername(strings.TrimSpace(username))
	if err != nil {
		log.Printf("auth: login lookup: %v", err)
		return Identity{}, errAccountStore
	}
	if player == nil || player.PassHash == "" {
		return Identity{}, errBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(player.PassHash), []byte(password)) != nil {
		return Identity{}, errBadCredentials
	}
	return a.issue(player.ID, player.Username)
}

// ValidateToken resumes a pilot from a token signed by this server
func (a *Auth) ValidateToken(raw string) (Identity, error) {
	var claims pilotClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || claims.PlayerID <= 0 || claims.Username == "" {
		return Identity{}, errInvalidToken
	}
	return Identity{PlayerID: claims.PlayerID, Username: claims.Username, Token: raw}, nil
}

func (a *Auth) issue(id int64, username string) (Identity, error) {
	now := a.now()
	claims := pilotClaims{
		PlayerID: id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: sign: %w", err)
	}
	return Identity{PlayerID: id, Username: username, Token: token}, nil
}

// allowLogin spends one attempt from the IP's bucket: maxLoginAttempts burst,
// refilled over loginRateWindow
func (a *Auth) allowLogin(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	l, ok := a.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rate.Every(loginRateWindow/maxLoginAttempts), maxLoginAttempts)
		a.limiters[ip] = l
	}
	return l.Allow()
}
