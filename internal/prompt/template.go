// Package prompt builds the instruction text sent to the vision model. The
// section markers below are a versioned vocabulary: the response renderer
// pattern-matches against these exact strings, so the builder and the
// renderer must change together.
package prompt

import (
	"fmt"
	"strings"
)

// Version identifies the current template vocabulary.
const Version = 1

// Supported reports whether this binary can serve the given template
// version. Deployments pin the version in configuration; a mismatch means
// the gateway and the rendering grammar would disagree, so startup refuses
// it.
func Supported(version int) bool {
	return version == Version
}

// Section markers the model is instructed to emit. The renderer keys off
// these literals.
const (
	SectionIdentification = "🔍 APPLIANCE IDENTIFICATION"
	SectionAgeEstimate    = "📅 AGE ESTIMATE"
	SectionKeyIndicators  = "🔧 KEY INDICATORS"
	SectionWarranty       = "⚖️ WARRANTY STATUS"
	SectionCondition      = "🛠️ CONDITION ASSESSMENT"
	SectionProblems       = "⚠️ COMMON PROBLEMS"
	SectionParts          = "🔧 TOP 5 REPLACEMENT PARTS"
	SectionVideos         = "🎥 REPAIR VIDEO RESOURCES"
	SectionMaintenance    = "💡 MAINTENANCE RECOMMENDATIONS"
	SectionNextSteps      = "💰 WHAT'S NEXT?"
	SectionServices       = "🏢 PROFESSIONAL SERVICES"
)

// Field labels used inside the keyed sections.
const (
	LabelType          = "Type"
	LabelBrand         = "Brand"
	LabelModel         = "Model"
	LabelEstimatedAge  = "Estimated Age"
	LabelManufactured  = "Manufacturing Period"
	LabelConfidence    = "Confidence Level"
	LabelWarrantyTerm  = "Typical Warranty"
	LabelWarrantyState = "Current Status"
	LabelCoverage      = "What's Usually Covered"
	LabelCondition     = "Overall Condition"
	LabelIssues        = "Potential Issues"
)

// Build returns the analysis instruction for the given batch shape. The
// output is a pure function of its inputs; identical inputs produce
// byte-identical prompts.
func Build(imageCount int, question string) string {
	var b strings.Builder

	if imageCount > 1 {
		fmt.Fprintf(&b, "Please analyze these %d appliance photos and provide detailed information about each appliance:\n\n", imageCount)
	} else {
		b.WriteString("Please analyze this appliance photo and provide detailed information about:\n\n")
	}

	b.WriteString(`1. Appliance identification (type, brand, model if visible)
2. Age estimation based on design features
3. Warranty status assessment
4. Common problems for this appliance type and age
5. Top 5 replacement parts with real OEM part numbers and realistic costs
6. Repair video search suggestions

Format your response with exactly the following sections and field labels:

`)

	b.WriteString("## " + SectionIdentification + "\n")
	b.WriteString("**" + LabelType + ":** the specific appliance type\n")
	b.WriteString("**" + LabelBrand + ":** the brand, or \"Brand not clearly visible\"\n")
	b.WriteString("**" + LabelModel + ":** the model number, or \"Model number not visible\"\n\n")

	b.WriteString("## " + SectionAgeEstimate + "\n")
	b.WriteString("**" + LabelEstimatedAge + ":** an age range such as \"8-12 years old\"\n")
	b.WriteString("**" + LabelManufactured + ":** a time period such as \"2012-2016\"\n")
	b.WriteString("**" + LabelConfidence + ":** High, Medium, or Low\n\n")

	b.WriteString("## " + SectionKeyIndicators + "\n")
	b.WriteString("List 2-3 specific design features that helped determine the age.\n\n")

	b.WriteString("## " + SectionWarranty + "\n")
	b.WriteString("**" + LabelWarrantyTerm + ":** the standard warranty period for this appliance type\n")
	b.WriteString("**" + LabelWarrantyState + ":** likely in or out of warranty based on age\n")
	b.WriteString("**" + LabelCoverage + ":** a brief overview of typical coverage\n\n")

	b.WriteString("## " + SectionCondition + "\n")
	b.WriteString("**" + LabelCondition + ":** Good, Fair, or Poor\n")
	b.WriteString("**" + LabelIssues + ":** any visible concerns or common problems for this age\n\n")

	b.WriteString("## " + SectionProblems + "\n")
	b.WriteString("Exactly five numbered entries, each formatted as:\n")
	b.WriteString("1. **problem name** - brief description of symptoms\n\n")

	b.WriteString("## " + SectionParts + "\n")
	b.WriteString("Exactly five bullet entries, each formatted as:\n")
	b.WriteString("- **part name**: OEM# part-number - **Part Cost: $XX-$XX**\n")
	b.WriteString("Use real manufacturer part numbers and realistic dollar ranges. Do not include any URLs or store links; name the part and its OEM number only.\n\n")

	b.WriteString("## " + SectionVideos + "\n")
	b.WriteString("Three bullet entries, each naming a specific repair task and a short video search phrase, for example:\n")
	b.WriteString("- **dryer heating element replacement** - search: \"dryer heating element replacement\"\n\n")

	b.WriteString("## " + SectionMaintenance + "\n")
	b.WriteString("2-3 specific, actionable maintenance tips to prevent common problems.\n\n")

	b.WriteString("## " + SectionNextSteps + "\n")
	b.WriteString("Advise whether to keep and maintain, repair, or consider replacement, based on age and condition.\n\n")

	b.WriteString("Provide concrete part numbers, realistic cost estimates, and specific search phrases. Never leave bracketed placeholders in the response.")

	if q := strings.TrimSpace(question); q != "" {
		fmt.Fprintf(&b, "\n\nAdditionally, please answer this specific question: %q", q)
	}

	return b.String()
}
