package statement

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/garyjia/kvdph/internal/domain/entity"
)

const (
	bucketIndividuals = "individuals"
	bucketRefunds     = "refunds"
)

// rateGroup is the per-rate sum of one document or one bucket
type rateGroup struct {
	rate  decimal.Decimal
	base  decimal.Decimal
	tax   decimal.Decimal
	count int
}

// rateKey groups by exact rate value; 20 and 20.00 share a key.
func rateKey(rate decimal.Decimal) string {
	return rate.String()
}

// groupByRate sums the taxed lines of a document per tax rate, ascending by rate.
// A line carrying several taxes contributes its full amounts to each of them.
func groupByRate(doc *entity.Document) ([]*rateGroup, int) {
	groups := make(map[string]*rateGroup)
	untaxed := 0

	for _, line := range doc.Lines {
		if len(line.TaxRates) == 0 {
			untaxed++
			continue
		}
		tax := line.TaxAmount()
		for _, rate := range line.TaxRates {
			key := rateKey(rate)
			group, ok := groups[key]
			if !ok {
				group = &rateGroup{rate: rate}
				groups[key] = group
			}
			group.base = group.base.Add(line.NetAmount)
			group.tax = group.tax.Add(tax)
		}
	}

	return sortedGroups(groups), untaxed
}

func sortedGroups(groups map[string]*rateGroup) []*rateGroup {
	result := make([]*rateGroup, 0, len(groups))
	for _, group := range groups {
		result = append(result, group)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].rate.Cmp(result[j].rate) < 0
	})
	return result
}

// forceNegative keeps the magnitude and forces the sign.
func forceNegative(amount decimal.Decimal) decimal.Decimal {
	return amount.Abs().Neg()
}

// bucket accumulates anonymous amounts per rate for the whole period
type bucket struct {
	name   string
	groups map[string]*rateGroup
}

func newBucket(name string) *bucket {
	return &bucket{name: name, groups: make(map[string]*rateGroup)}
}

func (b *bucket) add(group *rateGroup) *rateGroup {
	key := rateKey(group.rate)
	acc, ok := b.groups[key]
	if !ok {
		acc = &rateGroup{rate: group.rate}
		b.groups[key] = acc
	}
	acc.base = acc.base.Add(group.base)
	acc.tax = acc.tax.Add(group.tax)
	acc.count++
	return acc
}

func (b *bucket) sorted() []*rateGroup {
	return sortedGroups(b.groups)
}
