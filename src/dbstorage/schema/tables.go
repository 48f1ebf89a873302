// 两张表分别对应visited与frontier，每次保存整体替换
package schema

import (
	"time"
)

type VisitedURL struct {
	ID        uint64    `xorm:"bigint pk autoincr 'id'"`
	URL       string    `xorm:"varchar(2048) notnull unique(uk_visited_url) 'url'"`
	VisitedAt time.Time `xorm:"datetime notnull 'visited_at'"`
}

func (v *VisitedURL) TableName() string {
	return "visited_urls"
}

type FrontierURL struct {
	ID       uint64    `xorm:"bigint pk autoincr 'id'"`
	Position int       `xorm:"int notnull index(idx_frontier_position) 'position'"`
	URL      string    `xorm:"varchar(2048) notnull unique(uk_frontier_url) 'url'"`
	QueuedAt time.Time `xorm:"created notnull 'queued_at'"`
}

func (f *FrontierURL) TableName() string {
	return "frontier_urls"
}
