package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"
	"Kampung_Community/internal/repository/redis"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// streetTypes 道路名中出现这些词时，前面的部分视为片区名
var streetTypes = map[string]bool{
	"AVENUE": true, "AVE": true, "STREET": true, "ST": true, "ROAD": true, "RD": true,
	"DRIVE": true, "DR": true, "CRESCENT": true, "CENTRAL": true, "CLOSE": true,
	"LANE": true, "WAY": true, "RING": true, "LINK": true, "WALK": true, "GROVE": true,
	"PLACE": true, "TERRACE": true, "RISE": true, "VIEW": true,
}

// Classification 邮编对应的社区
type Classification struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// LookupResult 邮编查询结果
type LookupResult struct {
	Community *model.Community   `json:"community"`
	Address   *pkg.Address       `json:"address,omitempty"`
	Sector    model.PostalSector `json:"sector"`
	Kind      string             `json:"kind"`
	// Nearby 同一邮区下的其他社区
	Nearby []model.Community `json:"nearby"`
}

// lookupCacheEntry 只缓存地址和分类，社区每次回库读取以拿到最新成员数
type lookupCacheEntry struct {
	Address        *pkg.Address   `json:"address,omitempty"`
	Classification Classification `json:"classification"`
}

type PostalService struct {
	repo      *mysql.PostalRepository
	community *mysql.CommunityRepository
	cache     *redis.PostalCacheRepository
	geocoder  pkg.Geocoder
	log       *zap.Logger
}

func NewPostalService(db *gorm.DB, rdb *goredis.Client, geocoder pkg.Geocoder, log *zap.Logger) *PostalService {
	return &PostalService{
		repo:      &mysql.PostalRepository{DB: db},
		community: &mysql.CommunityRepository{DB: db},
		cache:     &redis.PostalCacheRepository{RDB: rdb},
		geocoder:  geocoder,
		log:       log,
	}
}

// ValidatePostalCode 必须是 6 位数字
func ValidatePostalCode(code string) error {
	if len(code) != 6 {
		return pkg.Invalid("postal code must be 6 digits")
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return pkg.Invalid("postal code must be 6 digits")
		}
	}
	return nil
}

// SectorOf 邮编前两位
func SectorOf(code string) string {
	return code[:2]
}

// Classify 按楼名 > 组屋片区 > 邮区的顺序归类
func Classify(addr *pkg.Address, sector model.PostalSector) Classification {
	if addr != nil {
		// 名称转不出 slug（纯中文、纯符号）时继续往下判断
		building := strings.TrimSpace(addr.Building)
		if building != "" && !isHDBMarker(building) {
			if slug := Slugify(building); slug != "" {
				return Classification{Kind: model.KindBuilding, Name: titleCase(building), Slug: slug}
			}
		}
		if strings.TrimSpace(addr.BlockNo) != "" && strings.TrimSpace(addr.RoadName) != "" {
			if town := estateTown(addr.RoadName); town != "" {
				if slug := Slugify(town); slug != "" {
					return Classification{Kind: model.KindEstate, Name: titleCase(town), Slug: slug}
				}
			}
		}
	}
	return Classification{
		Kind: model.KindSector,
		Name: fmt.Sprintf("District %02d · %s", sector.District, sector.Location),
		Slug: fmt.Sprintf("district-%02d-%s", sector.District, Slugify(sector.Location)),
	}
}

func isHDBMarker(building string) bool {
	b := strings.ToUpper(building)
	return b == "NIL" || strings.HasPrefix(b, "HDB") || strings.Contains(b, "HDB-")
}

// estateTown 从道路名提取片区名，如 "ANG MO KIO AVENUE 3" -> "ANG MO KIO"
func estateTown(road string) string {
	tokens := strings.Fields(strings.ToUpper(road))
	if len(tokens) > 0 && tokens[0] == "LORONG" {
		tokens = tokens[1:]
		if len(tokens) > 0 && isNumeric(tokens[0]) {
			tokens = tokens[1:]
		}
	} else if len(tokens) > 0 && tokens[0] == "JALAN" {
		tokens = tokens[1:]
	}

	var town []string
	for _, tok := range tokens {
		if streetTypes[tok] {
			break
		}
		if isNumeric(tok) {
			continue
		}
		town = append(town, tok)
	}
	return strings.Join(town, " ")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// Slugify 小写字母数字，其余折叠为单个连字符
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '\'' || r == '’':
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Lookup 邮编 -> 社区；OneMap 不可用时退化为按邮区归类
func (s *PostalService) Lookup(ctx context.Context, code string) (*LookupResult, error) {
	code = strings.TrimSpace(code)
	if err := ValidatePostalCode(code); err != nil {
		return nil, err
	}
	sector, err := s.repo.FindSector(ctx, SectorOf(code))
	if err != nil {
		return nil, pkg.NotFound(err, "postal sector")
	}

	var entry lookupCacheEntry
	raw, hit, err := s.cache.Get(ctx, code)
	if err != nil {
		s.log.Warn("postal cache get failed", zap.String("code", code), zap.Error(err))
	}
	if hit && json.Unmarshal(raw, &entry) == nil {
		return s.ensure(ctx, code, sector, entry)
	}

	entry.Address = s.geocode(ctx, code)
	entry.Classification = Classify(entry.Address, *sector)
	res, err := s.ensure(ctx, code, sector, entry)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(entry); err == nil {
		if err := s.cache.Set(ctx, code, b); err != nil {
			s.log.Warn("postal cache set failed", zap.String("code", code), zap.Error(err))
		}
	}
	return res, nil
}

func (s *PostalService) geocode(ctx context.Context, code string) *pkg.Address {
	if s.geocoder == nil {
		return nil
	}
	list, err := s.geocoder.Search(ctx, code)
	if err != nil {
		s.log.Warn("onemap search failed, falling back to sector", zap.String("code", code), zap.Error(err))
		return nil
	}
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}

func (s *PostalService) ensure(ctx context.Context, code string, sector *model.PostalSector, entry lookupCacheEntry) (*LookupResult, error) {
	cls := entry.Classification
	c, err := s.community.Ensure(ctx, &model.Community{
		Slug:     cls.Slug,
		Name:     cls.Name,
		Kind:     cls.Kind,
		Sector:   sector.Sector,
		District: sector.District,
		Region:   sector.Region,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "ensure community for %s", code)
	}
	res := &LookupResult{Community: c, Address: entry.Address, Sector: *sector, Kind: cls.Kind, Nearby: []model.Community{}}
	list, err := s.community.ListBySector(ctx, sector.Sector)
	if err != nil {
		s.log.Warn("list nearby communities failed", zap.String("sector", sector.Sector), zap.Error(err))
		return res, nil
	}
	for _, n := range list {
		if n.ID != c.ID {
			res.Nearby = append(res.Nearby, n)
		}
	}
	return res, nil
}

func (s *PostalService) ListSectors(ctx context.Context) ([]model.PostalSector, error) {
	return s.repo.ListSectors(ctx)
}

func (s *PostalService) GetSector(ctx context.Context, sector string) (*model.PostalSector, error) {
	if len(sector) != 2 || !isNumeric(sector) {
		return nil, pkg.Invalid("sector must be 2 digits")
	}
	ps, err := s.repo.FindSector(ctx, sector)
	return ps, pkg.NotFound(err, "postal sector")
}
