package router

import (
	"net/http"

	"Kampung_Community/internal/handler"
	"Kampung_Community/internal/middleware"
	"Kampung_Community/internal/repository/mysql"
	"Kampung_Community/internal/repository/redis"
	"Kampung_Community/internal/service"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps 路由依赖，由 main 统一组装
type Deps struct {
	DB    *gorm.DB
	Redis *goredis.Client
	Log   *zap.Logger

	Postal    *service.PostalService
	Users     *service.UserService
	Profiles  *service.ProfileService
	Community *service.CommunityService
	Posts     *service.PostService
	Comments  *service.CommentService
	Votes     *service.VoteService
	GroupBuys *service.GroupBuyService

	Metrics *middleware.Metrics
	Limiter *middleware.RateLimiter
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log), middleware.RequestLogger(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		if err := mysql.Ping(d.DB); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "mysql unavailable"})
			return
		}
		if err := d.Redis.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "ok"})
	})

	postal := handler.NewPostalHandler(d.Postal)
	user := handler.NewUserHandler(d.Users)
	profile := handler.NewProfileHandler(d.Profiles)
	community := handler.NewCommunityHandler(d.Community)
	post := handler.NewPostHandler(d.Posts, d.Comments)
	vote := handler.NewVoteHandler(d.Votes)
	groupBuy := handler.NewGroupBuyHandler(d.GroupBuys)

	auth := middleware.AuthMiddleware(&redis.SessionRepository{RDB: d.Redis})

	api := r.Group("/api")
	if d.Limiter != nil {
		api.Use(d.Limiter.Middleware())
	}

	// 邮编相关接口
	postalGroup := api.Group("/postal")
	{
		postalGroup.GET("/sectors", postal.ListSectors)
		postalGroup.GET("/sectors/:sector", postal.GetSector)
		postalGroup.GET("/:code", postal.Lookup)
	}

	// 登录注册相关接口
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", user.Signup)
		authGroup.POST("/login", user.Login)
		authGroup.POST("/refresh", user.Refresh)
		authGroup.POST("/magic-link", user.MagicLink)
		authGroup.POST("/magic-link/verify", user.VerifyMagicLink)
		authGroup.POST("/reset-code", user.ResetCode)
		authGroup.POST("/reset", user.ResetPassword)
		authGroup.POST("/logout", auth, user.Logout)
		authGroup.POST("/change-password", auth, user.ChangePassword)
	}

	// 用户资料接口
	profileGroup := api.Group("/profile")
	profileGroup.Use(auth)
	{
		profileGroup.GET("/me", profile.Me)
		profileGroup.PUT("/me", profile.Update)
		profileGroup.PUT("/me/home-community", profile.SetHomeCommunity)
		profileGroup.GET("/:id", profile.Get)
	}

	// 社区相关接口
	communityGroup := api.Group("/community")
	{
		communityGroup.GET("/list", community.List)
		communityGroup.GET("/mine", auth, community.Mine)
		communityGroup.GET("/:slug", community.Get)
		communityGroup.GET("/:slug/members", community.Members)
		communityGroup.GET("/:slug/membership", auth, community.Membership)
		communityGroup.POST("/:slug/join", auth, community.Join)
		communityGroup.POST("/:slug/leave", auth, community.Leave)

		communityGroup.GET("/:slug/posts", post.ListByCommunity)
		communityGroup.POST("/:slug/posts", auth, post.CreatePost)

		communityGroup.GET("/:slug/groupbuys", groupBuy.ListByCommunity)
		communityGroup.POST("/:slug/groupbuys", auth, groupBuy.Create)
	}

	// 帖子与评论接口
	postGroup := api.Group("/post")
	{
		postGroup.GET("/:id", post.GetPost)
		postGroup.PUT("/:id", auth, post.UpdatePost)
		postGroup.DELETE("/:id", auth, post.DeletePost)
		postGroup.GET("/:id/comments", post.ListComments)
		postGroup.POST("/:id/comments", auth, post.CreateComment)
		postGroup.DELETE("/:id/comments/:commentId", auth, post.DeleteComment)
	}

	// 投票接口
	voteGroup := api.Group("/vote")
	{
		voteGroup.GET("/score/:type/:id", vote.Score)
		voteGroup.POST("", auth, vote.Vote)
		voteGroup.GET("/mine", auth, vote.MyVotes)
	}

	// 团购接口
	groupBuyGroup := api.Group("/groupbuy")
	{
		groupBuyGroup.GET("/:id", groupBuy.Get)
		groupBuyGroup.GET("/:id/participants", groupBuy.Participants)
		groupBuyGroup.GET("/:id/comments", groupBuy.ListComments)
		groupBuyGroup.GET("/:id/share", groupBuy.Share)
		groupBuyGroup.GET("/:id/me", auth, groupBuy.Mine)
		groupBuyGroup.POST("/:id/join", auth, groupBuy.Join)
		groupBuyGroup.POST("/:id/leave", auth, groupBuy.Leave)
		groupBuyGroup.POST("/:id/close", auth, groupBuy.Close)
		groupBuyGroup.POST("/:id/comments", auth, groupBuy.CreateComment)
		groupBuyGroup.DELETE("/:id/comments/:commentId", auth, groupBuy.DeleteComment)
	}

	return r
}
