package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GroupBuyService struct {
	repo      *mysql.GroupBuyRepository
	profiles  *mysql.ProfileRepository
	community *CommunityService
	publicURL string
	log       *zap.Logger
	now       func() time.Time
}

func NewGroupBuyService(db *gorm.DB, community *CommunityService, publicURL string, log *zap.Logger) *GroupBuyService {
	return &GroupBuyService{
		repo:      &mysql.GroupBuyRepository{DB: db},
		profiles:  &mysql.ProfileRepository{DB: db},
		community: community,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateGroupBuyReq struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	ProductURL     string          `json:"product_url"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TargetQuantity int64           `json:"target_quantity"`
	Deadline       time.Time       `json:"deadline"`
	PickupLocation string          `json:"pickup_location"`
}

// Progress 团购进度
type Progress struct {
	CurrentQuantity  int64  `json:"current_quantity"`
	TargetQuantity   int64  `json:"target_quantity"`
	Percent          int    `json:"percent"`
	Remaining        int64  `json:"remaining"`
	ParticipantCount int64  `json:"participant_count"`
	Reached          bool   `json:"reached"`
	Status           string `json:"status"`
	TimeLeftSeconds  int64  `json:"time_left_seconds"`
	TimeLeft         string `json:"time_left"`
}

type GroupBuyDetail struct {
	*model.GroupBuy
	CreatorName    string          `json:"creator_name"`
	Progress       Progress        `json:"progress"`
	EstimatedTotal decimal.Decimal `json:"estimated_total"`
}

type ShareLinks struct {
	URL      string `json:"url"`
	Message  string `json:"message"`
	WhatsApp string `json:"whatsapp"`
	Telegram string `json:"telegram"`
}

type JoinGroupBuyResult struct {
	Participant *model.GroupBuyParticipant `json:"participant"`
	Detail      *GroupBuyDetail            `json:"group_buy"`
	Reached     bool                       `json:"reached_now"`
}

// ComputeProgress 百分比封顶 100，剩余量不为负
func ComputeProgress(gb *model.GroupBuy, now time.Time) Progress {
	p := Progress{
		CurrentQuantity:  gb.CurrentQuantity,
		TargetQuantity:   gb.TargetQuantity,
		ParticipantCount: gb.ParticipantCount,
		Reached:          gb.TargetQuantity > 0 && gb.CurrentQuantity >= gb.TargetQuantity,
		Status:           gb.Status,
	}
	if gb.TargetQuantity > 0 {
		p.Percent = int(min(100, gb.CurrentQuantity*100/gb.TargetQuantity))
	}
	p.Remaining = max(0, gb.TargetQuantity-gb.CurrentQuantity)
	if left := gb.Deadline.Sub(now); left > 0 && gb.Status == model.GroupBuyOpen {
		p.TimeLeftSeconds = int64(left / time.Second)
		p.TimeLeft = humanizeDuration(left)
	} else {
		p.TimeLeft = "ended"
	}
	return p
}

func humanizeDuration(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	mins := int(d % time.Hour / time.Minute)
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh left", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm left", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm left", mins)
	default:
		return "less than a minute left"
	}
}

func (s *GroupBuyService) detail(ctx context.Context, gb *model.GroupBuy) (*GroupBuyDetail, error) {
	creator, err := s.profiles.FindByUserID(ctx, gb.CreatorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &GroupBuyDetail{
		GroupBuy:       gb,
		CreatorName:    creator.DisplayName,
		Progress:       ComputeProgress(gb, s.now()),
		EstimatedTotal: gb.UnitPrice.Mul(decimal.NewFromInt(gb.CurrentQuantity)),
	}, nil
}

func (s *GroupBuyService) Create(ctx context.Context, userID uint64, slug string, req CreateGroupBuyReq) (*GroupBuyDetail, error) {
	title := strings.TrimSpace(req.Title)
	if n := utf8.RuneCountInString(title); n == 0 || n > 120 {
		return nil, pkg.Invalid("title must be 1 to 120 characters")
	}
	if req.TargetQuantity < 1 {
		return nil, pkg.Invalid("target quantity must be at least 1")
	}
	if req.UnitPrice.IsNegative() {
		return nil, pkg.Invalid("unit price cannot be negative")
	}
	if !req.Deadline.After(s.now()) {
		return nil, pkg.Invalid("deadline must be in the future")
	}
	if req.ProductURL != "" {
		if u, err := url.Parse(req.ProductURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, pkg.Invalid("product url must be http or https")
		}
	}

	c, err := s.community.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.community.requireMember(ctx, c.ID, userID); err != nil {
		return nil, err
	}

	gb := &model.GroupBuy{
		CommunityID:    c.ID,
		CreatorID:      userID,
		Title:          title,
		Description:    req.Description,
		ProductURL:     req.ProductURL,
		UnitPrice:      req.UnitPrice.Round(2),
		TargetQuantity: req.TargetQuantity,
		Deadline:       req.Deadline.UTC(),
		PickupLocation: strings.TrimSpace(req.PickupLocation),
		Status:         model.GroupBuyOpen,
	}
	if err := s.repo.Create(ctx, gb); err != nil {
		return nil, err
	}
	return s.detail(ctx, gb)
}

func (s *GroupBuyService) Get(ctx context.Context, id uint64) (*GroupBuyDetail, error) {
	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkg.NotFound(err, "group buy")
	}
	return s.detail(ctx, gb)
}

// ListByCommunity status 为空时返回全部
func (s *GroupBuyService) ListByCommunity(ctx context.Context, slug, status string, page, size int) ([]GroupBuyDetail, error) {
	switch status {
	case "", model.GroupBuyOpen, model.GroupBuyClosed, model.GroupBuyExpired:
	default:
		return nil, pkg.Invalid("unknown status")
	}
	c, err := s.community.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	offset, limit := pageOffset(page, size)
	list, err := s.repo.ListByCommunity(ctx, c.ID, status, offset, limit)
	if err != nil {
		return nil, err
	}
	ids := lo.Uniq(lo.Map(list, func(g model.GroupBuy, _ int) uint64 { return g.CreatorID }))
	profiles, err := s.profiles.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return lo.Map(list, func(g model.GroupBuy, i int) GroupBuyDetail {
		return GroupBuyDetail{
			GroupBuy:       &list[i],
			CreatorName:    profiles[g.CreatorID].DisplayName,
			Progress:       ComputeProgress(&list[i], now),
			EstimatedTotal: g.UnitPrice.Mul(decimal.NewFromInt(g.CurrentQuantity)),
		}
	}), nil
}

// Join 重复加入视为修改数量；超过目标后仍可加入
func (s *GroupBuyService) Join(ctx context.Context, userID, id uint64, quantity int64, note string) (*JoinGroupBuyResult, error) {
	if quantity < 1 {
		return nil, pkg.Invalid("quantity must be at least 1")
	}
	if utf8.RuneCountInString(note) > 255 {
		return nil, pkg.Invalid("note must be at most 255 characters")
	}
	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkg.NotFound(err, "group buy")
	}
	if err := s.community.requireMember(ctx, gb.CommunityID, userID); err != nil {
		return nil, err
	}

	res, err := s.repo.Join(ctx, id, userID, quantity, strings.TrimSpace(note), s.now())
	if err != nil {
		return nil, mapGroupBuyErr(err)
	}
	if res.Reached {
		s.log.Info("group buy reached target",
			zap.Uint64("group_buy_id", id), zap.Int64("quantity", res.GroupBuy.CurrentQuantity))
	}
	d, err := s.detail(ctx, res.GroupBuy)
	if err != nil {
		return nil, err
	}
	return &JoinGroupBuyResult{Participant: res.Participant, Detail: d, Reached: res.Reached}, nil
}

func mapGroupBuyErr(err error) error {
	switch {
	case errors.Is(err, mysql.ErrGroupBuyNotOpen):
		return errors.Mark(err, pkg.ErrConflict)
	case errors.Is(err, mysql.ErrGroupBuyExpired):
		return errors.Mark(err, pkg.ErrConflict)
	}
	return pkg.NotFound(err, "group buy")
}

// Leave 只能在团购进行中退出
func (s *GroupBuyService) Leave(ctx context.Context, userID, id uint64) (*GroupBuyDetail, error) {
	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkg.NotFound(err, "group buy")
	}
	if gb.Status != model.GroupBuyOpen {
		return nil, pkg.Conflict("group buy is no longer open")
	}
	if _, err := s.repo.Leave(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Close 发起人结束团购
func (s *GroupBuyService) Close(ctx context.Context, userID, id uint64) (*GroupBuyDetail, error) {
	n, err := s.repo.Close(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		gb, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, pkg.NotFound(err, "group buy")
		}
		if gb.CreatorID != userID {
			return nil, pkg.Forbidden("only the organiser can close this group buy")
		}
		if gb.Status != model.GroupBuyOpen {
			return nil, pkg.Conflict("group buy is already " + gb.Status)
		}
	}
	return s.Get(ctx, id)
}

// ExpireDue 定时任务调用
func (s *GroupBuyService) ExpireDue(ctx context.Context) (int64, error) {
	return s.repo.ExpireDue(ctx, s.now())
}

// MyParticipation 当前用户在该团购中的数量和备注，未参加返回 NotFound
func (s *GroupBuyService) MyParticipation(ctx context.Context, userID, id uint64) (*model.GroupBuyParticipant, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, pkg.NotFound(err, "group buy")
	}
	p, err := s.repo.FindParticipant(ctx, id, userID)
	if err != nil {
		return nil, pkg.NotFound(err, "participation")
	}
	return p, nil
}

func (s *GroupBuyService) Participants(ctx context.Context, id uint64) ([]model.ParticipantView, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, pkg.NotFound(err, "group buy")
	}
	return s.repo.Participants(ctx, id)
}

func (s *GroupBuyService) CreateComment(ctx context.Context, userID, id uint64, content string) (*model.GroupBuyComment, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > maxCommentLen {
		return nil, pkg.Invalid("comment must be 1 to 2000 characters")
	}
	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkg.NotFound(err, "group buy")
	}
	if err := s.community.requireMember(ctx, gb.CommunityID, userID); err != nil {
		return nil, err
	}
	c := &model.GroupBuyComment{GroupBuyID: id, AuthorID: userID, Content: content}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GroupBuyService) ListComments(ctx context.Context, id uint64, page, size int) ([]model.GroupBuyComment, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, pkg.NotFound(err, "group buy")
	}
	offset, limit := pageOffset(page, size)
	return s.repo.ListComments(ctx, id, offset, limit)
}

func (s *GroupBuyService) DeleteComment(ctx context.Context, userID, groupBuyID, commentID uint64) error {
	n, err := s.repo.DeleteComment(ctx, groupBuyID, commentID, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.repo.FindComment(ctx, groupBuyID, commentID); err != nil {
			return pkg.NotFound(err, "comment")
		}
		return pkg.Forbidden("no permission")
	}
	return nil
}

// Share 生成 WhatsApp / Telegram 分享链接
func (s *GroupBuyService) Share(ctx context.Context, id uint64) (*ShareLinks, error) {
	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkg.NotFound(err, "group buy")
	}
	link := fmt.Sprintf("%s/groupbuy/%d", s.publicURL, gb.ID)
	msg := fmt.Sprintf("Join my group buy \"%s\": %d/%d so far", gb.Title, gb.CurrentQuantity, gb.TargetQuantity)
	if !gb.UnitPrice.IsZero() {
		msg += fmt.Sprintf(", S$%s each", gb.UnitPrice.StringFixed(2))
	}
	return &ShareLinks{
		URL:      link,
		Message:  msg,
		WhatsApp: "https://wa.me/?text=" + url.QueryEscape(msg+" "+link),
		Telegram: "https://t.me/share/url?url=" + url.QueryEscape(link) + "&text=" + url.QueryEscape(msg),
	}, nil
}
