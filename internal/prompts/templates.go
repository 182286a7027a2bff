package prompts

// Template keys.
const (
	KeyIdentify = "identify"
	KeyImprove  = "improve"
	KeyGenerate = "generate"
)

// Contextual preambles, chosen by whether conversation history is present.
const (
	IdentifyExpertRole = "You are an expert AI assistant specialized in identifying Mermaid.js diagram types from natural language prompts."

	IdentifyWithHistory = `You are analyzing a user's request in the context of an ongoing conversation about diagram creation.
Consider the conversation history to better understand what type of diagram the user is requesting.`

	ImproveWithHistory = `Consider the conversation history when improving this prompt. If this appears to be a modification
or extension of a previously discussed diagram, incorporate relevant context from the conversation.`

	GenerateWithHistory = `Use the conversation history to understand the context. If this is a modification of a previously
generated diagram, build upon or modify the previous diagram structure appropriately.`
)

const identifyTemplate = `{{VAR:context_instruction}}

Task: Analyze the user's input and determine if it describes a diagram that can be represented using Mermaid.

Valid Diagram Types: {{VAR:diagram_types}}

Rules:
1. If the prompt clearly relates to one of the valid diagram types, return: { "type": "<diagram_type>", "message": "The prompt describes a <diagram_type>." }
2. If ambiguous but likely refers to a diagram, pick the most probable type based on keywords and context.
3. If not related to diagram generation, return: { "type": "not_diagram", "message": "The provided prompt is not related to diagram generation." }
4. Respond ONLY with valid JSON.

{{VAR:history}}

User Prompt: "{{VAR:prompt}}"`

const improveTemplate = `You are an expert prompt engineer specialized in Mermaid diagram generation.

Your task is to improve the following prompt to make it more structured, explicit, and suitable for generating accurate Mermaid diagrams.

{{VAR:context_instruction}}

REQUIREMENTS:
1. The improved prompt should be clear and specific
2. Include all necessary details for the diagram type
3. Use proper terminology for the diagram type
4. Ensure the prompt will generate valid Mermaid syntax
5. Be concise but comprehensive

{{VAR:history}}

Diagram Type: {{VAR:diagram_type}}
Original Prompt: "{{VAR:prompt}}"

Provide an improved prompt:`

const generateTemplate = `You are an expert Mermaid diagram generator. Create a valid Mermaid diagram based on the following description.

{{VAR:context_instruction}}

REQUIREMENTS:
1. Generate ONLY the Mermaid code, no explanations or markdown formatting
2. Use proper Mermaid syntax for {{VAR:diagram_type}}
3. Ensure the diagram is complete and valid
4. Start with the appropriate Mermaid directive ({{VAR:directive|default="graph TD"}})
5. Use clear, descriptive labels
6. Follow Mermaid best practices
7. The output should be ready to render directly

{{VAR:history}}

Diagram Type: {{VAR:diagram_type}}
Description: "{{VAR:prompt}}"

Generate the Mermaid diagram code:`
