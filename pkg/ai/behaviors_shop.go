package ai

import "riftline/pkg/ai/bt"

func condCanBuy(bb *Blackboard) bool {
	if bb.Bought >= bb.Config.BuyLimit {
		return false
	}
	for _, o := range bb.View.Offers {
		if o.Remaining > 0 {
			return true
		}
	}
	return false
}

// actBuy 随机挑一条有库存的报价，每次只买一件
func actBuy(bb *Blackboard) bt.Status {
	candidates := make([]Offer, 0, len(bb.View.Offers))
	for _, o := range bb.View.Offers {
		if o.Remaining > 0 {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return bt.StatusFailure
	}
	bb.Next.BuyOffer = candidates[bb.RNG.IntN(len(candidates))].ShopID
	bb.Bought++
	return bt.StatusSuccess
}

func actSkip(*Blackboard) bt.Status {
	return bt.StatusSuccess
}
