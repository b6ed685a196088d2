package pkg

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const oneMapSearchPath = "/api/common/elastic/search"

// Address OneMap 返回的单条地址
type Address struct {
	BlockNo  string  `json:"block_no"`
	RoadName string  `json:"road_name"`
	Building string  `json:"building"`
	Address  string  `json:"address"`
	Postal   string  `json:"postal"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Geocoder 邮编查询接口，测试中可替换
type Geocoder interface {
	Search(ctx context.Context, postal string) ([]Address, error)
}

type OneMapClient struct {
	http *resty.Client
}

func NewOneMapClient(baseURL string, timeout time.Duration) *OneMapClient {
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &OneMapClient{http: c}
}

// Search 按邮编精确查询，只保留 POSTAL 完全一致的结果
func (c *OneMapClient) Search(ctx context.Context, postal string) ([]Address, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"searchVal":      postal,
			"returnGeom":     "Y",
			"getAddrDetails": "Y",
			"pageNum":        "1",
		}).
		Get(oneMapSearchPath)
	if err != nil {
		return nil, errors.Wrap(err, "onemap search")
	}
	if resp.IsError() {
		return nil, errors.Newf("onemap search: unexpected status %d", resp.StatusCode())
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, errors.New("onemap search: invalid json")
	}

	var out []Address
	gjson.GetBytes(body, "results").ForEach(func(_, v gjson.Result) bool {
		addr := Address{
			BlockNo:  nilToEmpty(v.Get("BLK_NO").String()),
			RoadName: nilToEmpty(v.Get("ROAD_NAME").String()),
			Building: nilToEmpty(v.Get("BUILDING").String()),
			Address:  nilToEmpty(v.Get("ADDRESS").String()),
			Postal:   nilToEmpty(v.Get("POSTAL").String()),
			Lat:      v.Get("LATITUDE").Float(),
			Lng:      v.Get("LONGITUDE").Float(),
		}
		if addr.Postal == postal {
			out = append(out, addr)
		}
		return true
	})
	return out, nil
}

// OneMap 用 "NIL" 表示空字段
func nilToEmpty(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "NIL") {
		return ""
	}
	return s
}
