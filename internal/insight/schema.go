package insight

// resultSchema is the contract the generative-text service must meet.
// The model is untrusted: its output is validated against this schema
// before being accepted, and any violation triggers the fixed fallback.
const resultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["overallScore", "insights", "recommendations", "contentAnalysis", "growthPrediction"],
  "properties": {
    "overallScore": {"type": "number", "minimum": 0, "maximum": 10},
    "insights": {
      "type": "array",
      "minItems": 3,
      "maxItems": 5,
      "items": {
        "type": "object",
        "required": ["type", "title", "description"],
        "properties": {
          "type": {"type": "string", "enum": ["success", "warning", "improvement"]},
          "title": {"type": "string"},
          "description": {"type": "string"},
          "metric": {"type": "string"}
        }
      }
    },
    "recommendations": {
      "type": "array",
      "minItems": 4,
      "maxItems": 6,
      "items": {"type": "string"}
    },
    "contentAnalysis": {
      "type": "object",
      "required": ["bestPerforming", "worstPerforming", "optimalPostingTime", "topHashtags"],
      "properties": {
        "bestPerforming": {"type": "string"},
        "worstPerforming": {"type": "string"},
        "optimalPostingTime": {"type": "string"},
        "topHashtags": {"type": "array", "items": {"type": "string"}}
      }
    },
    "growthPrediction": {
      "type": "object",
      "required": ["thirtyDays", "sixtyDays", "ninetyDays"],
      "properties": {
        "thirtyDays": {"type": "number"},
        "sixtyDays": {"type": "number"},
        "ninetyDays": {"type": "number"}
      }
    },
    "brandAnalysis": {"type": "string"},
    "contentGuide": {"type": "string"},
    "topPerformers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["platform", "caption", "score"],
        "properties": {
          "platform": {"type": "string"},
          "caption": {"type": "string"},
          "score": {"type": "number"},
          "reason": {"type": "string"}
        }
      }
    }
  }
}`
