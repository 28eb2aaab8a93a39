// Package devserver is a self-contained stand-in for the NomNom service:
// the same HTTP contract, backed by YAML fixtures and in-memory state.
// It exists for offline development and for end-to-end tests; it does no
// actual recommendation ranking, it just pages fixtures in order.
package devserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/nomnomhq/nomnom/internal/model"
)

// Config holds dev server tuning.
type Config struct {
	Addr      string
	JWTSecret string
	TokenTTL  time.Duration
	PageSize  int
	// Requests per second per client, with a burst of twice that.
	// Zero disables limiting.
	RateLimit float64
}

type user struct {
	ID           string
	Username     string
	PasswordHash string
	Name         string
	Email        string
	Phone        string
	Age          int
	Gender       string
	Location     string
}

type meal struct {
	ID           string
	UserID       string
	RestaurantID string
	Date         time.Time
	MealTime     string
}

type review struct {
	ID           string
	UserID       string
	RestaurantID string
	Rating       float64
	Date         time.Time
}

// Server implements the NomNom HTTP API over in-memory state.
type Server struct {
	cfg Config
	log *zap.Logger

	mu          sync.Mutex
	users       map[string]*user // keyed by lowercase username
	nextUserNum int
	restaurants []model.Restaurant
	meals       []meal
	reviews     []review
	limiters    map[string]*rate.Limiter

	server   *http.Server
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewServer seeds a server from fixtures. User passwords are bcrypt
// hashed at load.
func NewServer(cfg Config, fx *Fixtures, log *zap.Logger) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = model.DefaultDevListenAddr
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "nomnom-dev-secret"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		log:      log,
		users:    make(map[string]*user),
		limiters: make(map[string]*rate.Limiter),
		ctx:      ctx,
		cancel:   cancel,
	}

	for _, fu := range fx.Users {
		hash, err := hashPassword(fu.Password)
		if err != nil {
			cancel()
			return nil, err
		}
		s.users[strings.ToLower(fu.Username)] = &user{
			ID: fu.ID, Username: fu.Username, PasswordHash: hash,
			Name: fu.Name, Email: fu.Email, Phone: fu.Phone,
			Age: fu.Age, Gender: fu.Gender, Location: fu.Location,
		}
		s.nextUserNum++
	}
	for _, fr := range fx.Restaurants {
		s.restaurants = append(s.restaurants, fr.toModel())
	}
	return s, nil
}

// Start begins serving. With an ":0" address, Addr reports the bound port.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.rateLimit())

	r.POST("/api/register", s.handleRegister)
	r.POST("/api/login", s.handleLogin)
	r.GET("/api/restaurants", s.handleRestaurants)

	auth := r.Group("/api", s.requireAuth())
	auth.POST("/recommend", s.handleRecommend)
	auth.POST("/rate", s.handleRate)
	auth.GET("/profile", s.handleProfile)
	auth.POST("/profile/update", s.handleProfileUpdate)
	auth.POST("/profile/change-password", s.handleChangePassword)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = listener

	go s.server.Serve(listener)
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) rateLimit() gin.HandlerFunc {
	if s.cfg.RateLimit <= 0 {
		return func(*gin.Context) {}
	}
	return func(c *gin.Context) {
		s.mu.Lock()
		lim, ok := s.limiters[c.ClientIP()]
		if !ok {
			lim = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), int(2*s.cfg.RateLimit))
			s.limiters[c.ClientIP()] = lim
		}
		s.mu.Unlock()

		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
		}
	}
}

func (s *Server) mintToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.cfg.TokenTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing Authorization header"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(s.cfg.JWTSecret), nil
		})
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token has expired"})
			return
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid token"})
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid token"})
			return
		}
		c.Set("userID", sub)
	}
}

func (s *Server) userByID(id string) *user {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) handleRegister(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		DOB      string `json:"dob"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid registration payload"})
		return
	}

	age := 0
	if body.DOB != "" {
		dob, err := time.Parse("2006-01-02", body.DOB)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date format"})
			return
		}
		age = int(time.Since(dob).Hours() / 24 / 365.25)
	}

	username := strings.ToLower(body.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		c.JSON(http.StatusConflict, gin.H{"message": "Username already exists"})
		return
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, body.Email) {
			c.JSON(http.StatusConflict, gin.H{"message": "Email already exists"})
			return
		}
	}

	hash, err := hashPassword(body.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during registration"})
		return
	}

	s.nextUserNum++
	s.users[username] = &user{
		ID:           fmt.Sprintf("USR_%03d", s.nextUserNum),
		Username:     username,
		PasswordHash: hash,
		Name:         body.FullName,
		Email:        strings.ToLower(body.Email),
		Phone:        body.Phone,
		Age:          age,
		Gender:       "M",
		Location:     "4.38284661761217, 100.97441771522674",
	}
	s.log.Info("registered user", zap.String("username", username))
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid login payload"})
		return
	}

	s.mu.Lock()
	u := s.users[strings.ToLower(body.Username)]
	s.mu.Unlock()

	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := s.mintToken(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during login"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "username": u.Username})
}

func (s *Server) handleRestaurants(c *gin.Context) {
	s.mu.Lock()
	out := append([]model.Restaurant(nil), s.restaurants...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRecommend(c *gin.Context) {
	var body struct {
		ExcludeIDs []string `json:"exclude_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid recommend payload"})
		return
	}
	excluded := make(map[string]struct{}, len(body.ExcludeIDs))
	for _, id := range body.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	s.mu.Lock()
	var page []model.Restaurant
	for _, r := range s.restaurants {
		if _, skip := excluded[r.ID]; skip {
			continue
		}
		page = append(page, r)
		if len(page) == s.cfg.PageSize {
			break
		}
	}
	s.mu.Unlock()

	if page == nil {
		page = []model.Restaurant{}
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":         c.GetString("userID"),
		"recommendations": page,
	})
}

func (s *Server) handleRate(c *gin.Context) {
	var body struct {
		RestaurantID string  `json:"restaurant_id"`
		Rating       float64 `json:"rating"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.RestaurantID == "" || body.Rating == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing restaurant_id or rating"})
		return
	}

	userID := c.GetString("userID")
	now := time.Now()

	s.mu.Lock()
	s.meals = append(s.meals, meal{
		ID:           "MEAL_" + uuid.NewString(),
		UserID:       userID,
		RestaurantID: body.RestaurantID,
		Date:         now,
		MealTime:     mealTime(now),
	})
	s.reviews = append(s.reviews, review{
		ID:           "REV_" + uuid.NewString(),
		UserID:       userID,
		RestaurantID: body.RestaurantID,
		Rating:       body.Rating,
		Date:         now,
	})
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "Rating recorded"})
}

func mealTime(t time.Time) string {
	switch h := t.Hour(); {
	case h < 11:
		return "breakfast"
	case h < 16:
		return "lunch"
	default:
		return "dinner"
	}
}

func (s *Server) handleProfile(c *gin.Context) {
	userID := c.GetString("userID")

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userByID(userID)
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	var myMeals []meal
	for _, m := range s.meals {
		if m.UserID == userID {
			myMeals = append(myMeals, m)
		}
	}
	var ratingSum float64
	var ratingCount int
	latestRating := make(map[string]float64)
	for _, r := range s.reviews {
		if r.UserID != userID {
			continue
		}
		ratingSum += r.Rating
		ratingCount++
		latestRating[r.RestaurantID] = r.Rating
	}

	avg := 0.0
	if ratingCount > 0 {
		avg = ratingSum / float64(ratingCount)
	}

	recent := make([]model.MealEntry, 0, 5)
	for i := len(myMeals) - 1; i >= 0 && len(recent) < 5; i-- {
		m := myMeals[i]
		entry := model.MealEntry{
			MealID:         m.ID,
			RestaurantName: s.restaurantName(m.RestaurantID),
			Date:           m.Date.Format("2006-01-02"),
			MealTime:       m.MealTime,
		}
		if r, ok := latestRating[m.RestaurantID]; ok {
			rr := r
			entry.Rating = &rr
		}
		recent = append(recent, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"user_info": model.Profile{
			Username: u.Username, Email: u.Email, Name: u.Name,
			Age: u.Age, Phone: u.Phone, Gender: u.Gender, Location: u.Location,
		},
		"stats": model.ProfileStats{
			TotalMeals:      len(myMeals),
			AverageRating:   avg,
			FavoriteCuisine: s.favoriteCuisine(myMeals),
		},
		"recent_meals": recent,
	})
}

func (s *Server) restaurantName(id string) string {
	for _, r := range s.restaurants {
		if r.ID == id {
			return r.Name
		}
	}
	return id
}

// favoriteCuisine is the most frequent tag across eaten restaurants.
func (s *Server) favoriteCuisine(myMeals []meal) string {
	counts := make(map[string]int)
	for _, m := range myMeals {
		for _, r := range s.restaurants {
			if r.ID != m.RestaurantID {
				continue
			}
			for _, tag := range r.Tags {
				counts[tag]++
			}
		}
	}
	best := "N/A"
	bestCount := 0
	for tag, n := range counts {
		if n > bestCount {
			best, bestCount = tag, n
		}
	}
	return best
}

func (s *Server) handleProfileUpdate(c *gin.Context) {
	var body struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Gender   string `json:"gender"`
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid profile payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userByID(c.GetString("userID"))
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if body.Name != "" {
		u.Name = body.Name
	}
	if body.Phone != "" {
		u.Phone = body.Phone
	}
	if body.Gender != "" {
		u.Gender = body.Gender
	}
	if body.Location != "" {
		u.Location = body.Location
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully!",
		"user": model.Profile{
			Username: u.Username, Email: u.Email, Name: u.Name,
			Age: u.Age, Phone: u.Phone, Gender: u.Gender, Location: u.Location,
		},
	})
}

func (s *Server) handleChangePassword(c *gin.Context) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid password payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userByID(c.GetString("userID"))
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.CurrentPassword)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Current password is incorrect"})
		return
	}
	hash, err := hashPassword(body.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error changing password"})
		return
	}
	u.PasswordHash = hash
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully!"})
}
