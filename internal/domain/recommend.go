package domain

// Recommendations are a deterministic function of severity tier (or threat
// category), looked up from fixed tables. They are operational guidance for
// coastal managers, not generated text.

var erosionRecommendations = map[Severity][]string{
	SeverityCritical: {
		"Activate emergency coastal protection and evacuation protocols",
		"Deploy emergency monitoring equipment with continuous telemetry",
		"Conduct immediate bathymetric and topographic surveys",
		"Implement hard engineering solutions (seawalls, groynes)",
		"Restrict access to high-risk shoreline segments",
	},
	SeverityHigh: {
		"Immediate deployment of emergency coastal protection measures",
		"Increase monitoring frequency to daily",
		"Conduct detailed bathymetric and topographic surveys",
		"Implement hard engineering solutions (seawalls, groynes)",
		"Evacuation planning for high-risk areas",
	},
	SeverityMedium: {
		"Enhanced monitoring with weekly assessments",
		"Consider soft engineering solutions (beach nourishment)",
		"Monitor weather patterns and storm events",
		"Develop coastal protection strategy",
		"Community awareness and preparedness programs",
	},
	SeverityLow: {
		"Continue monthly monitoring schedule",
		"Document baseline conditions for future reference",
		"Monitor for any acceleration in erosion rates",
		"Maintain existing coastal vegetation",
		"Regular assessment of protection measures",
	},
	SeverityStable: {
		"Maintain current monitoring frequency",
		"Continue data collection for trend analysis",
		"Monitor for any changes in coastal dynamics",
		"Preserve existing coastal ecosystems",
		"Regular review of coastal management policies",
	},
}

var floodRecommendations = map[Severity][]string{
	SeverityCritical: {
		"Issue immediate flood warning to coastal communities",
		"Activate emergency response teams and shelters",
		"Close low-lying roads and waterfront access",
		"Deploy temporary flood barriers where staged",
		"Broadcast evacuation guidance for the lowest zones",
	},
	SeverityHigh: {
		"Issue flood watch for the affected area",
		"Pre-position emergency response resources",
		"Verify drainage and pump infrastructure readiness",
		"Alert operators of critical coastal infrastructure",
		"Advise residents to prepare for possible inundation",
	},
	SeverityMedium: {
		"Monitor tide and precipitation forecasts closely",
		"Inspect and clear storm drainage systems",
		"Review flood response plans with local teams",
		"Stage sandbags and barrier materials",
		"Inform communities of elevated flood potential",
	},
	SeverityLow: {
		"Continue routine tide and weather monitoring",
		"Maintain drainage infrastructure on normal schedule",
		"Keep flood response plans current",
		"Record baseline water levels for trend analysis",
		"No protective action required at this time",
	},
	SeverityStable: {
		"Continue routine tide and weather monitoring",
		"Maintain drainage infrastructure on normal schedule",
		"Keep flood response plans current",
		"Record baseline water levels for trend analysis",
		"No protective action required at this time",
	},
}

var threatRecommendations = map[Category][]string{
	CategoryThreatPollution: {
		"Investigate potential pollution sources upstream and offshore",
		"Conduct water quality testing at the affected site",
		"Notify environmental enforcement authorities",
	},
	CategoryThreatVegetationLoss: {
		"Assess mangrove and dune vegetation restoration needs",
		"Investigate causes of vegetation loss",
		"Schedule follow-up imagery to confirm the trend",
	},
	CategoryThreatConstruction: {
		"Verify permits for observed shoreline construction",
		"Dispatch field inspection to the flagged area",
		"Document the site for enforcement follow-up",
	},
	CategoryThreatAlgalBloom: {
		"Sample water for algal species and toxin levels",
		"Issue public advisory for affected beaches if confirmed",
		"Track bloom extent with follow-up imagery",
	},
	CategoryThreatSediment: {
		"Investigate dredging or runoff sources of the sediment plume",
		"Monitor impact on seagrass and reef habitats",
		"Compare against historical turbidity baselines",
	},
}
