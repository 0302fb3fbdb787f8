package service

// RewardTier 奖励档位，同一张表同时驱动里程碑奖励与等级映射
type RewardTier struct {
	Threshold int    `json:"threshold"`
	Label     string `json:"label"`
	Level     string `json:"level"`
}

// rewardTiers 档位按阈值升序，等级映射要求单调不减
var rewardTiers = []RewardTier{
	{Threshold: 10, Label: "Ram Sticker Pack", Level: "Rookie Fan"},
	{Threshold: 25, Label: "Spirit Button Set", Level: "Spirit Squad"},
	{Threshold: 50, Label: "Crimson Koozie", Level: "Super Fan"},
	{Threshold: 75, Label: "Rally Towel", Level: "Ram Regular"},
	{Threshold: 100, Label: "Spirit T-Shirt", Level: "Crimson Loyal"},
	{Threshold: 150, Label: "Rams Cap", Level: "Gold Standard"},
	{Threshold: 200, Label: "Game Day Scarf", Level: "Stampede Leader"},
	{Threshold: 300, Label: "Rams Hoodie", Level: "Campus Icon"},
	{Threshold: 400, Label: "Replica Jersey", Level: "Spirit Captain"},
	{Threshold: 500, Label: "VIP Tailgate Pass", Level: "Hall of Famer"},
	{Threshold: 750, Label: "Signed Game Ball", Level: "Ram Royalty"},
	{Threshold: 1000, Label: "Season Tickets", Level: "Riverton Legend"},
}

const baseLevel = "New Fan"

// RewardTiers 返回档位表副本，供 UI 展示奖品目录
func RewardTiers() []RewardTier {
	tiers := make([]RewardTier, len(rewardTiers))
	copy(tiers, rewardTiers)
	return tiers
}

// LevelForPoints 积分到等级名的单调映射
func LevelForPoints(points int) string {
	level := baseLevel
	for _, tier := range rewardTiers {
		if points < tier.Threshold {
			break
		}
		level = tier.Level
	}
	return level
}

// NextTier 下一个未达到的档位，已到顶返回 nil
func NextTier(points int) *RewardTier {
	for _, tier := range rewardTiers {
		if points < tier.Threshold {
			t := tier
			return &t
		}
	}
	return nil
}

// TierAt 精确查某个阈值的档位
func TierAt(threshold int) *RewardTier {
	for _, tier := range rewardTiers {
		if tier.Threshold == threshold {
			t := tier
			return &t
		}
	}
	return nil
}
