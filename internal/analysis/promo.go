package analysis

// Promotional block appended to every successful analysis. The two service
// names are part of the product contract and show up in end-to-end tests.
const (
	ServiceEstimateName = "EstimateMyFix.com"
	ServiceEstimateURL  = "https://estimatemyfix.com"
	ServicePickupName   = "FreeLocalAppliancePickup.com"
	ServicePickupURL    = "https://freelocalappliancepickup.com"
)

const promoBlock = `

---

## 🏢 PROFESSIONAL SERVICES

### Need a Repair Estimate?
**Get a professional repair estimate at:** [` + ServiceEstimateName + `](` + ServiceEstimateURL + `)
- Professional appliance repair quotes
- Licensed and insured technicians
- Quick and reliable service

### Need Appliance Removal?
**Professional appliance pickup and disposal:** [` + ServicePickupName + `](` + ServicePickupURL + `)
- Free local appliance pickup
- Environmentally responsible disposal
- Same-day service available

---
*Analysis provided by AI-powered appliance assessment technology*`

// AppendPromo composes the model's analysis with the fixed promotional
// block.
func AppendPromo(text string) string {
	return text + promoBlock
}
