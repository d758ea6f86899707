package signals

import "github.com/Alias1177/SignalTrader/models"

// minActiveStrategies is the consensus floor for ValidateSignal
const minActiveStrategies = 3

// ValidateSignal reports quality issues with a signal. It is advisory;
// callers decide whether to act on an invalid signal.
func ValidateSignal(signal *models.TradingSignal) models.SignalValidation {
	issues := []string{}
	recommendations := []string{}

	if signal.Confidence < 0.5 {
		issues = append(issues, "Low confidence signal")
		recommendations = append(recommendations, "Consider additional confirmation")
	}

	if signal.Action != models.ActionHold && (signal.StopLoss == nil || signal.TakeProfit == nil) {
		issues = append(issues, "Missing risk management levels")
		recommendations = append(recommendations, "Set stop loss and take profit levels")
	}

	if len(signal.Strategies) < minActiveStrategies {
		issues = append(issues, "Insufficient strategy analysis")
		recommendations = append(recommendations, "Include more technical indicators")
	}

	active := 0
	for _, s := range signal.Strategies {
		if s.Confidence > 0.3 {
			active++
		}
	}
	if active < minActiveStrategies {
		issues = append(issues, "Limited strategy consensus")
		recommendations = append(recommendations, "Wait for more indicators to align")
	}

	return models.SignalValidation{
		Valid:           len(issues) == 0,
		Issues:          issues,
		Recommendations: recommendations,
	}
}
